// Package access holds the predicate deciding whether a viewer may see or
// mutate a course aggregate. Every rule here runs before any repository or
// network call; the backend enforces the same rules again, but the decision
// under this package's control is the authoritative client-facing one.
package access

import (
	"strings"

	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
	appErrors "github.com/jadhavharshh/ConnectX-sub001/pkg/errors"
)

// NormalizeRole maps a raw identity claim to a recognised role. Absence of
// an explicit teacher claim yields the student role: the more restrictive
// default. This default is advisory for reads only; mutations always
// re-check ownership via CanMutateCourse.
func NormalizeRole(raw string) models.UserRole {
	if strings.EqualFold(raw, string(models.RoleTeacher)) {
		return models.RoleTeacher
	}
	return models.RoleStudent
}

// CanViewCourse reports whether the viewer may read the course. Teachers see
// only their own courses; students see public courses and restricted courses
// whose target year and division both match, with "All" as a wildcard on
// either axis. Both axes are evaluated independently (AND).
func CanViewCourse(viewer models.ViewerContext, course models.Course) bool {
	if viewer.IsTeacher() {
		return course.CreatedByClerkID == viewer.ClerkUserID
	}
	if course.Visibility == models.VisibilityPublic {
		return true
	}
	return matchesTarget(course.TargetYear, viewer.Year) &&
		matchesTarget(course.TargetDivision, viewer.Division)
}

// VisibleCourses filters a course list down to what the viewer may read,
// preserving order.
func VisibleCourses(viewer models.ViewerContext, courses []models.Course) []models.Course {
	visible := make([]models.Course, 0, len(courses))
	for _, course := range courses {
		if CanViewCourse(viewer, course) {
			visible = append(visible, course)
		}
	}
	return visible
}

// CanMutateCourse permits structural changes (course fields, modules,
// lessons) only for the teacher who created the course.
func CanMutateCourse(viewer models.ViewerContext, course models.Course) error {
	if !viewer.IsTeacher() {
		return appErrors.Clone(appErrors.ErrForbidden, "only teachers may modify courses")
	}
	if course.CreatedByClerkID != viewer.ClerkUserID {
		return appErrors.Clone(appErrors.ErrForbidden, "course belongs to another teacher")
	}
	return nil
}

// CanAskDiscussion permits any authenticated viewer with a non-empty
// question to open a discussion on a visible course.
func CanAskDiscussion(viewer models.ViewerContext, course models.Course, question string) error {
	if viewer.ClerkUserID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "identity required to ask a question")
	}
	if strings.TrimSpace(question) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "question must not be empty")
	}
	if !CanViewCourse(viewer, course) {
		return appErrors.Clone(appErrors.ErrForbidden, "course is not visible to this viewer")
	}
	return nil
}

// CanReplyToDiscussion permits replies from any student and from the teacher
// who owns the parent course. Closed discussions accept no further replies.
func CanReplyToDiscussion(viewer models.ViewerContext, course models.Course, discussion models.Discussion) error {
	if viewer.ClerkUserID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "identity required to reply")
	}
	if discussion.Status == models.DiscussionClosed {
		return appErrors.Clone(appErrors.ErrDiscussionDone, "discussion is closed to replies")
	}
	if viewer.IsTeacher() && course.CreatedByClerkID != viewer.ClerkUserID {
		return appErrors.Clone(appErrors.ErrForbidden, "course belongs to another teacher")
	}
	return nil
}

// CanCloseDiscussion is teacher-only and owner-only.
func CanCloseDiscussion(viewer models.ViewerContext, course models.Course) error {
	if !viewer.IsTeacher() {
		return appErrors.Clone(appErrors.ErrForbidden, "only teachers may close discussions")
	}
	if course.CreatedByClerkID != viewer.ClerkUserID {
		return appErrors.Clone(appErrors.ErrForbidden, "course belongs to another teacher")
	}
	return nil
}

// ReplyStatus resolves the discussion status after a reply: any reply
// transitions an open discussion to answered unless the caller supplies an
// explicit override. A student replying to their own question transitions it
// too, matching the behavior clients already depend on.
func ReplyStatus(current models.DiscussionStatus, override models.DiscussionStatus) models.DiscussionStatus {
	if override != "" {
		return override
	}
	if current == models.DiscussionOpen {
		return models.DiscussionAnswered
	}
	return current
}

// FilterCourses applies a case-insensitive substring match over the
// concatenation of title, description, category and tags. An empty query
// returns the input unchanged.
func FilterCourses(courses []models.Course, query string) []models.Course {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return courses
	}
	matched := make([]models.Course, 0, len(courses))
	for _, course := range courses {
		haystack := strings.ToLower(strings.Join(append([]string{
			course.Title,
			course.Description,
			course.Category,
		}, course.Tags...), " "))
		if strings.Contains(haystack, query) {
			matched = append(matched, course)
		}
	}
	return matched
}

func matchesTarget(target, actual string) bool {
	if target == models.TargetAll || target == "" {
		return true
	}
	return strings.EqualFold(target, actual)
}
