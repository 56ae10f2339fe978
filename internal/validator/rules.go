package validator

import (
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	maxSkillLength   = 100
	maxSkillsPerList = 200
)

// registerCustomRules registers every custom tag on v. A failed registration
// is a programming error, so the process stops.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'skill-list': every entry is non-blank and reasonably short
	mustRegister("skill-list", validateSkillList)
}

func validateSkillList(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}
	if field.Len() > maxSkillsPerList {
		return false
	}

	for i := 0; i < field.Len(); i++ {
		item := field.Index(i)
		if item.Kind() != reflect.String {
			return false
		}
		skill := strings.TrimSpace(item.String())
		if skill == "" || len(skill) > maxSkillLength {
			return false
		}
	}
	return true
}
