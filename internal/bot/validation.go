package bot

import (
	"strconv"
	"strings"

	"grimaldi/internal/composition"
)

// parseNumber accepts both "1,75" and "1.75"
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	return strconv.ParseFloat(s, 64)
}

// parseHeight returns meters; values above 3 are read as centimeters
func parseHeight(s string) (float64, error) {
	h, err := parseNumber(s)
	if err != nil {
		return 0, composition.ValidationError{Field: "height", Message: "Altura inválida"}
	}
	if h > 3 {
		h /= 100
	}
	if h < 0.5 || h > 2.5 {
		return 0, composition.ValidationError{Field: "height", Message: "Altura deve estar entre 0,5 e 2,5 m"}
	}
	return h, nil
}

// parseWeight validates weight in kg
func parseWeight(s string) (float64, error) {
	w, err := parseNumber(s)
	if err != nil {
		return 0, composition.ValidationError{Field: "weight", Message: "Peso inválido"}
	}
	if w < 20 || w > 400 {
		return 0, composition.ValidationError{Field: "weight", Message: "Peso deve estar entre 20 e 400 kg"}
	}
	return w, nil
}

// parseAge validates age in years
func parseAge(s string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, composition.ValidationError{Field: "age", Message: "Idade inválida"}
	}
	if age < 1 || age > 120 {
		return 0, composition.ValidationError{Field: "age", Message: "Idade deve estar entre 1 e 120 anos"}
	}
	return age, nil
}

// parseSex accepts M/F and the full words in Portuguese and English
func parseSex(s string) (composition.Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "masculino", "male", "homem":
		return composition.SexMale, nil
	case "f", "feminino", "female", "mulher":
		return composition.SexFemale, nil
	}
	return "", composition.ValidationError{Field: "sex", Message: "Sexo inválido"}
}

// parseMeasurements reads six circumferences in cm in the order
// arms, forearms, waist, hip, thighs, calves
func parseMeasurements(args string) (composition.Measurements, error) {
	fields := strings.Fields(args)
	if len(fields) != len(composition.Kinds) {
		return composition.Measurements{}, composition.ValidationError{
			Field:   "measurements",
			Message: "Informe as seis medidas",
		}
	}

	var m composition.Measurements
	for i, k := range composition.Kinds {
		v, err := parseNumber(fields[i])
		if err != nil || v <= 0 {
			return composition.Measurements{}, composition.ValidationError{
				Field:   string(k),
				Message: "Medida inválida: " + k.Label(),
			}
		}
		m = m.With(k, v)
	}
	return m, nil
}

// lateralURL returns the first http(s) link in a photo caption
func lateralURL(caption string) string {
	for _, f := range strings.Fields(caption) {
		if strings.HasPrefix(f, "http://") || strings.HasPrefix(f, "https://") {
			return f
		}
	}
	return ""
}
