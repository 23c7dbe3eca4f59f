package ddl

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-collections/errs"
)

var isString = validation.By(func(v any) error {
	if _, ok := v.(string); !ok {
		return errors.New("must be a string")
	}
	return nil
})

var descriptionRule = validation.Map(
	validation.Key("field", validation.Required, isString),
	validation.Key("type", validation.Required, isString),
	validation.Key("interface", validation.Required, isString),
).AllowExtraKeys()

// Validate checks a single description.
func (d Description) Validate() error {
	return validation.Validate(map[string]any(d), descriptionRule)
}

// validateAll collects the problems of every description into out, keyed by
// field name. Descriptions without a usable name are keyed by label and
// position.
func validateAll(out validation.Errors, label string, descs []Description) {
	for i, d := range descs {
		err := d.Validate()
		if err == nil {
			continue
		}
		key, _ := d["field"].(string)
		if key == "" {
			key = fmt.Sprintf("%s#%d", label, i)
		}
		if _, taken := out[key]; taken {
			key = fmt.Sprintf("%s#%d:%s", label, i, key)
		}
		out[key] = err
	}
}

// ValidateDescriptions checks every description and reports all of the
// offending fields at once.
func ValidateDescriptions(descs []Description) error {
	out := validation.Errors{}
	validateAll(out, "", descs)
	return aggregate(out)
}

func aggregate(out validation.Errors) error {
	if len(out) == 0 {
		return nil
	}
	return errs.InvalidSchemaDescription(out)
}
