package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"adhypo/domain/core"
)

var validate = validator.New()

// Validate checks the structural fields of a plan: required task fields and
// known roles. Graph shape (references, cycles) is checked by the scheduler.
func (p Plan) Validate() error {
	if len(p.Tasks) == 0 {
		return core.ErrEmptyPlan
	}
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid plan: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid plan: %w", err)
	}
	for _, t := range p.Tasks {
		if !t.Role.Valid() {
			return fmt.Errorf("%w: task %s has role %q", core.ErrUnknownRole, t.ID, t.Role)
		}
	}
	return nil
}
