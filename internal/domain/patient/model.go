package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gender is stored as its string form in postgres.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// ParseGender maps a free-form string to a Gender. The second return is
// false for anything that is not a known value; callers treat that as
// "absent" rather than an error.
func ParseGender(s string) (Gender, bool) {
	switch Gender(strings.ToUpper(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale, true
	case GenderFemale:
		return GenderFemale, true
	case GenderOther:
		return GenderOther, true
	}
	return "", false
}

type BloodGroup string

const (
	BloodAPos  BloodGroup = "A_POS"
	BloodANeg  BloodGroup = "A_NEG"
	BloodBPos  BloodGroup = "B_POS"
	BloodBNeg  BloodGroup = "B_NEG"
	BloodABPos BloodGroup = "AB_POS"
	BloodABNeg BloodGroup = "AB_NEG"
	BloodOPos  BloodGroup = "O_POS"
	BloodONeg  BloodGroup = "O_NEG"
)

// ParseBloodGroup accepts both the enum form ("A_POS") and the common
// clinical shorthand ("A+", "b-"), case-insensitively.
func ParseBloodGroup(s string) (BloodGroup, bool) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "+", "_POS")
	v = strings.ReplaceAll(v, "-", "_NEG")
	switch BloodGroup(v) {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg,
		BloodABPos, BloodABNeg, BloodOPos, BloodONeg:
		return BloodGroup(v), true
	}
	return "", false
}

type Patient struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	Name       string      `json:"name" db:"name"`
	Phone      string      `json:"phone" db:"phone"`
	Email      string      `json:"email" db:"email"`
	Address    *string     `json:"address,omitempty" db:"address"`
	Gender     *Gender     `json:"gender,omitempty" db:"gender"`
	Age        *int        `json:"age,omitempty" db:"age"`
	BloodGroup *BloodGroup `json:"blood_group,omitempty" db:"blood_group"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}
