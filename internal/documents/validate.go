package documents

import (
	"fmt"
	"regexp"
	"strings"
)

var courseCodePattern = regexp.MustCompile(`^[A-Z0-9-]{2,20}$`)

// NormalizeCourseCode trims and upper-cases code, then validates it
// against the course code pattern.
func NormalizeCourseCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !courseCodePattern.MatchString(code) {
		return "", fmt.Errorf("%w: course code must match %s", ErrInvalidCourseCode, courseCodePattern.String())
	}
	return code, nil
}
