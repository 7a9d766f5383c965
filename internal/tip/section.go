package tip

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Section is one optional block of a tip: *VehicleInfo, *SuspectInfo or
// *VictimInfo. A nil Section is absent.
type Section interface {
	Kind() string
	section()
}

// FlexString accepts a JSON string or number. Form answers encode ages either way.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = FlexString(n.String())
	return nil
}

type VehicleInfo struct {
	State       string `json:"vehicleState" validate:"required"`
	PlateNumber string `json:"vehiclePlateNumber" validate:"required"`
}

type SuspectInfo struct {
	Name   string     `json:"suspectName" validate:"required"`
	Age    FlexString `json:"suspectAge" validate:"omitempty,age"`
	Gender string     `json:"suspectGender"`
}

type VictimInfo struct {
	Name   string     `json:"victimName" validate:"required"`
	Age    FlexString `json:"victimAge" validate:"omitempty,age"`
	Gender string     `json:"victimGender"`
}

func (*VehicleInfo) Kind() string { return "vehicle" }
func (*SuspectInfo) Kind() string { return "suspect" }
func (*VictimInfo) Kind() string  { return "victim" }

func (*VehicleInfo) section() {}
func (*SuspectInfo) section() {}
func (*VictimInfo) section()  {}

var errMissingPayload = errors.New("info answers are empty")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("age", func(fl validator.FieldLevel) bool {
		age, err := strconv.Atoi(fl.Field().String())
		return err == nil && age >= 0 && age <= 150
	})
	return v
}

// decodeSection parses answers[0] into dst. A decode error means the section
// must not be shown. Schema violations come back as warnings and leave the
// partially filled section usable.
func decodeSection(answers []string, dst Section) (warnings []string, err error) {
	if len(answers) == 0 || answers[0] == "" {
		return nil, errMissingPayload
	}
	if err := json.Unmarshal([]byte(answers[0]), dst); err != nil {
		return nil, fmt.Errorf("decode %s info: %w", dst.Kind(), err)
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("validate %s info: %w", dst.Kind(), err)
		}
		for _, fe := range fieldErrs {
			warnings = append(warnings, fmt.Sprintf("%s: field %s failed %q check", dst.Kind(), fe.Field(), fe.Tag()))
		}
	}
	return warnings, nil
}
