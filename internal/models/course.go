package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// CourseLevel indicates the intended audience of a course.
type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
	LevelAll          CourseLevel = "all"
)

// CourseVisibility restricts who may browse a course.
type CourseVisibility string

const (
	VisibilityPublic     CourseVisibility = "public"
	VisibilityRestricted CourseVisibility = "restricted"
)

// TargetAll is the wildcard for target year and division. A course targeting
// "All" on an axis matches every student on that axis.
const TargetAll = "All"

// Course is the root aggregate: it exclusively owns its modules, which own
// their lessons. Only the creating teacher may mutate a course.
type Course struct {
	ID                 string           `db:"id" json:"id"`
	Title              string           `db:"title" json:"title"`
	Description        string           `db:"description" json:"description"`
	Category           string           `db:"category" json:"category"`
	Level              CourseLevel      `db:"level" json:"level"`
	Visibility         CourseVisibility `db:"visibility" json:"visibility"`
	TargetYear         string           `db:"target_year" json:"target_year"`
	TargetDivision     string           `db:"target_division" json:"target_division"`
	Tags               pq.StringArray   `db:"tags" json:"tags"`
	ThumbnailURL       string           `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	CreatedByClerkID   string           `db:"created_by_clerk_id" json:"created_by_clerk_id"`
	EnrolledStudentIDs pq.StringArray   `db:"enrolled_student_ids" json:"enrolled_student_ids"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// Module is owned exclusively by its course and ordered by position.
type Module struct {
	ID       string  `db:"id" json:"id"`
	CourseID string  `db:"course_id" json:"course_id"`
	Title    string  `db:"title" json:"title"`
	Summary  *string `db:"summary" json:"summary,omitempty"`
	Position int     `db:"position" json:"position"`
}

// VideoType distinguishes uploaded media from embedded YouTube links.
type VideoType string

const (
	VideoUpload  VideoType = "upload"
	VideoYouTube VideoType = "youtube"
)

// LessonResource is a supplementary link attached to a lesson.
type LessonResource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// LessonResources stores the ordered resource list as a jsonb column.
type LessonResources []LessonResource

// Value implements driver.Valuer.
func (r LessonResources) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner.
func (r *LessonResources) Scan(src interface{}) error {
	if src == nil {
		*r = nil
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported lesson resources type %T", src)
	}
	return json.Unmarshal(raw, r)
}

// Lesson is owned exclusively by its module; Position determines display
// order and defaults to 1.
type Lesson struct {
	ID          string          `db:"id" json:"id"`
	ModuleID    string          `db:"module_id" json:"module_id"`
	Title       string          `db:"title" json:"title"`
	Description *string         `db:"description" json:"description,omitempty"`
	VideoType   VideoType       `db:"video_type" json:"video_type"`
	VideoURL    string          `db:"video_url" json:"video_url"`
	Position    int             `db:"position" json:"position"`
	Resources   LessonResources `db:"resources" json:"resources"`
	Duration    *string         `db:"duration" json:"duration,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// ModuleDetail bundles a module with its ordered lessons.
type ModuleDetail struct {
	Module
	Lessons []Lesson `json:"lessons"`
}

// CourseDetail bundles a course with its ordered module tree.
type CourseDetail struct {
	Course
	Modules []ModuleDetail `json:"modules"`
}

// CourseFilter captures listing criteria. Search is matched case-insensitively
// against title, description, category and tags.
type CourseFilter struct {
	Search   string
	Page     int
	PageSize int
}
