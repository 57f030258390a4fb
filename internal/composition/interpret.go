package composition

import "fmt"

// Interpretation is the textual summary shown to clients.
type Interpretation struct {
	BMI            string `json:"bmi"`
	FatPercent     string `json:"fat_percent"`
	LeanMass       string `json:"lean_mass"`
	CompositeScore string `json:"composite_score"`
}

// InterpretResults maps the headline numbers of a result to labels.
func InterpretResults(r *Result) Interpretation {
	if r == nil {
		return Interpretation{}
	}
	return Interpretation{
		BMI:            bmiLabel(r.Composition.BMI),
		FatPercent:     fatPercentLabel(r.Composition.FatPercent, r.Profile.Sex),
		LeanMass:       leanMassLabel(r.Composition.LeanMassKg, r.Profile.WeightKg, r.Profile.Sex),
		CompositeScore: scoreLabel(r.Score),
	}
}

// WHO adult BMI bands.
func bmiLabel(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Abaixo do peso"
	case bmi < 25:
		return "Peso normal"
	case bmi < 30:
		return "Sobrepeso"
	case bmi < 35:
		return "Obesidade grau I"
	case bmi < 40:
		return "Obesidade grau II"
	default:
		return "Obesidade grau III"
	}
}

func fatPercentLabel(pct float64, sex Sex) string {
	// essential, athlete, fitness, acceptable
	limits := [4]float64{6, 14, 18, 25}
	if sex == SexFemale {
		limits = [4]float64{14, 21, 25, 32}
	}
	switch {
	case pct < limits[0]:
		return "Gordura essencial"
	case pct < limits[1]:
		return "Atleta"
	case pct < limits[2]:
		return "Boa forma"
	case pct < limits[3]:
		return "Aceitável"
	default:
		return "Acima do recomendado"
	}
}

func leanMassLabel(leanKg, weightKg float64, sex Sex) string {
	if weightKg <= 0 {
		return ""
	}
	share := leanKg / weightKg * 100
	limits := [3]float64{85, 75, 65}
	if sex == SexFemale {
		limits = [3]float64{77, 67, 57}
	}
	var label string
	switch {
	case share >= limits[0]:
		label = "Excelente"
	case share >= limits[1]:
		label = "Boa"
	case share >= limits[2]:
		label = "Regular"
	default:
		label = "Baixa"
	}
	return fmt.Sprintf("%s (%.0f%% do peso)", label, share)
}

func scoreLabel(score int) string {
	switch {
	case score >= 75:
		return "Excelente"
	case score >= 60:
		return "Bom"
	case score >= 45:
		return "Regular"
	case score >= 30:
		return "Atenção"
	default:
		return "Crítico"
	}
}
