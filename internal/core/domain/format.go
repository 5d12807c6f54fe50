package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const BirthdayLayout = "2006-01-02"

var months = [12]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// FormatBirthday renders a date as "DD MON YYYY", e.g. "13 SEP 1989".
func FormatBirthday(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), months[t.Month()-1], t.Year())
}

// ParseBirthday parses the YYYY-MM-DD form the registration stores.
func ParseBirthday(s string) (time.Time, error) {
	t, err := time.Parse(BirthdayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidBirthday
	}

	return t, nil
}

var phoneGroups = regexp.MustCompile(`(\d{3})(\d{4})(\d{4})`)

// FormatPhone prefixes the national trunk 0 and groups the first 11-digit run as 3-4-4,
// so "87798320931" becomes "0877-9832-0931". Inputs without such a run are only prefixed.
func FormatPhone(phone string) string {
	loc := phoneGroups.FindStringSubmatchIndex(phone)
	if loc == nil {
		return "0" + phone
	}

	grouped := phone[loc[2]:loc[3]] + "-" + phone[loc[4]:loc[5]] + "-" + phone[loc[6]:loc[7]]

	return "0" + phone[:loc[0]] + grouped + phone[loc[1]:]
}
