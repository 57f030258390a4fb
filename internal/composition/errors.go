package composition

import "errors"

// ErrLandmarksMissing is returned by the extractor when a required
// keypoint was not detected.
var ErrLandmarksMissing = errors.New("composition: required landmarks missing")

// ValidationError is an invalid profile or measurement. It is fatal to the
// current analysis and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

const (
	msgInsufficientData = "Dados insuficientes para análise"
	msgInvalidProfile   = "Dados do perfil inválidos"
	msgMissingMeasure   = "Medida essencial ausente: "
)

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
