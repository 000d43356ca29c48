package validation

// AccountClass selects a password policy.
type AccountClass int

// Account classes.
const (
	ClassStaff AccountClass = iota + 1
	ClassStudent
)

// PasswordPolicy is a named rule for one account class.
type PasswordPolicy struct {
	Tag     string
	Message string
	Check   func(string) bool
}

var policies = map[AccountClass]PasswordPolicy{
	ClassStaff: {
		Tag:     "staffpwd",
		Message: "{0} must be at least 8 characters and contain an uppercase letter, a lowercase letter and a digit",
		Check:   staffPassword,
	},
	ClassStudent: {
		Tag:     "studentpin",
		Message: "{0} must be exactly 8 digits",
		Check:   studentPIN,
	},
}

// PolicyFor returns the password policy for class.
func PolicyFor(class AccountClass) (PasswordPolicy, bool) {
	p, ok := policies[class]
	return p, ok
}

// CheckPassword reports whether pw satisfies the policy for class.
func CheckPassword(class AccountClass, pw string) bool {
	p, ok := policies[class]
	return ok && p.Check(pw)
}

func staffPassword(pw string) bool {
	if len([]rune(pw)) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case 'A' <= r && r <= 'Z':
			upper = true
		case 'a' <= r && r <= 'z':
			lower = true
		case '0' <= r && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

func studentPIN(pw string) bool {
	if len(pw) != 8 {
		return false
	}
	for i := 0; i < len(pw); i++ {
		if pw[i] < '0' || pw[i] > '9' {
			return false
		}
	}
	return true
}
