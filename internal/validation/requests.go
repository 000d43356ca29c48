package validation

import (
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/model"
)

var enrollmentTypes = []model.EnrollmentType{
	model.EnrollmentRegular,
	model.EnrollmentMockOnly,
	model.EnrollmentVisitor,
}

// MemberRequest sanitizes body and validates it as a staff provisioning request.
func MemberRequest(body map[string]any) (model.MemberRequest, error) {
	centerID, bad := parseID(body["center_id"], "center_id")
	req := model.MemberRequest{
		FullName: SanitizeString(body["full_name"], MaxNameLen),
		Email:    NormalizeEmail(body["email"]),
		Password: password(body["password"]),
		CenterID: centerID,
		Role:     model.Role(strings.ToLower(SanitizeString(body["role"], MaxRoleLen))),
	}
	if err := Struct(req, bad...); err != nil {
		return model.MemberRequest{}, err
	}
	return req, nil
}

// StudentRequest sanitizes body and validates it as a student provisioning request.
func StudentRequest(body map[string]any) (model.StudentRequest, error) {
	centerID, bad := parseID(body["center_id"], "center_id")
	req := model.StudentRequest{
		Name:          SanitizeString(body["name"], MaxNameLen),
		Email:         NormalizeEmail(body["email"]),
		Password:      password(body["password"]),
		CenterID:      centerID,
		Phone:         SanitizeOptional(body["phone"], MaxPhoneLen),
		Guardian:      SanitizeOptional(body["guardian"], MaxNameLen),
		GuardianPhone: SanitizeOptional(body["guardian_phone"], MaxPhoneLen),
		DateOfBirth:   SanitizeOptional(body["date_of_birth"], MaxDateLen),
		Address:       SanitizeOptional(body["address"], MaxAddressLen),
		EnrollmentType: EnumOrDefault(
			strings.ToLower(SanitizeString(body["enrollment_type"], MaxRoleLen)),
			enrollmentTypes, model.EnrollmentRegular,
		),
	}
	if err := Struct(req, bad...); err != nil {
		return model.StudentRequest{}, err
	}
	return req, nil
}

// ID parses a required uuid named field from untrusted input.
func ID(raw any, field string) (uuid.UUID, error) {
	id, bad := parseID(raw, field)
	if len(bad) > 0 {
		return uuid.Nil, errs.Invalid(bad...)
	}
	if id == uuid.Nil {
		return uuid.Nil, errs.Invalid(field + " is a required field")
	}
	return id, nil
}

func parseID(raw any, field string) (uuid.UUID, []string) {
	s := SanitizeString(raw, 64)
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.FromString(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, []string{field + " must be a valid UUID"}
	}
	return id, nil
}

// password keeps the secret verbatim; only non-strings and overlong values are neutralized.
func password(raw any) string {
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	if r := []rune(s); len(r) > MaxPasswordLen {
		return string(r[:MaxPasswordLen+1])
	}
	return s
}
