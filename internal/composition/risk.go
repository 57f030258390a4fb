package composition

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// IndexName identifies one of the seven classified indices.
type IndexName string

const (
	IndexWaist       IndexName = "waist"
	IndexHip         IndexName = "hip"
	IndexLeanMass    IndexName = "lean_mass_index"
	IndexFatMass     IndexName = "fat_mass_index"
	IndexWaistHip    IndexName = "waist_hip"
	IndexWaistHeight IndexName = "waist_height"
	IndexConicity    IndexName = "conicity"
)

// IndexNames lists the indices in report order.
var IndexNames = []IndexName{
	IndexWaist, IndexHip, IndexLeanMass, IndexFatMass,
	IndexWaistHip, IndexWaistHeight, IndexConicity,
}

// Label returns the Portuguese index name.
func (n IndexName) Label() string {
	switch n {
	case IndexWaist:
		return "Circunferência da cintura"
	case IndexHip:
		return "Circunferência do quadril"
	case IndexLeanMass:
		return "Índice de massa magra"
	case IndexFatMass:
		return "Índice de massa gorda"
	case IndexWaistHip:
		return "Relação cintura/quadril"
	case IndexWaistHeight:
		return "Relação cintura/estatura"
	case IndexConicity:
		return "Índice de conicidade"
	default:
		return string(n)
	}
}

func classified(v float64, band Band, desc string) ClassifiedIndex {
	return ClassifiedIndex{Value: v, Band: band, Description: desc}
}

// ClassifyWaist uses unisex cut points; sex is accepted for call-site
// symmetry only.
func ClassifyWaist(cm float64, _ Sex) ClassifiedIndex {
	switch {
	case cm <= 94:
		return classified(cm, BandLowRisk, "Baixo risco cardiovascular")
	case cm <= 102:
		return classified(cm, BandModerate, "Risco cardiovascular moderado")
	default:
		return classified(cm, BandHighRisk, "Alto risco cardiovascular")
	}
}

func ClassifyHip(cm float64) ClassifiedIndex {
	switch {
	case cm <= 97.2:
		return classified(cm, BandAttention, "Abaixo da faixa de referência")
	case cm <= 104.8:
		return classified(cm, BandLowRisk, "Dentro da faixa de referência")
	case cm <= 108.6:
		return classified(cm, BandModerate, "Acima da faixa de referência")
	default:
		return classified(cm, BandHighRisk, "Muito acima da faixa de referência")
	}
}

func ClassifyWaistHeight(ratio float64) ClassifiedIndex {
	switch {
	case ratio <= 0.5:
		return classified(ratio, BandLowRisk, "Baixo risco metabólico")
	case ratio <= 0.55:
		return classified(ratio, BandModerate, "Risco metabólico moderado")
	default:
		return classified(ratio, BandHighRisk, "Alto risco metabólico")
	}
}

// ClassifyWaistHip uses a unisex 0.9 cut point regardless of sex.
func ClassifyWaistHip(ratio float64, _ Sex) ClassifiedIndex {
	if ratio <= 0.9 {
		return classified(ratio, BandAdequate, "Distribuição de gordura adequada")
	}
	return classified(ratio, BandInadequate, "Acúmulo de gordura abdominal")
}

func ClassifyConicity(ci float64) ClassifiedIndex {
	if ci < 1.25 {
		return classified(ci, BandAdequate, "Conicidade adequada")
	}
	return classified(ci, BandInadequate, "Conicidade elevada")
}

// ClassifyLeanMassIndex: below the sex threshold the band is BAIXO_RISCO,
// which here means "below ideal", not low risk. The composite score still
// gives it full credit.
func ClassifyLeanMassIndex(v float64, sex Sex) ClassifiedIndex {
	threshold := 17.8
	if sex == SexFemale {
		threshold = 14.8
	}
	if v >= threshold {
		return classified(v, BandAdequate, "Massa magra adequada")
	}
	return classified(v, BandLowRisk, "Massa magra abaixo do ideal")
}

func ClassifyFatMassIndex(v float64) ClassifiedIndex {
	switch {
	case v <= 2.2:
		return classified(v, BandLowRisk, "Massa gorda baixa")
	case v <= 4.4:
		return classified(v, BandAdequate, "Massa gorda adequada")
	default:
		return classified(v, BandHighRisk, "Massa gorda elevada")
	}
}

// ClassifyIndex dispatches by name. Stored results keep only the numeric
// value and are rebuilt through this function.
func ClassifyIndex(name IndexName, v float64, sex Sex) ClassifiedIndex {
	switch name {
	case IndexWaist:
		return ClassifyWaist(v, sex)
	case IndexHip:
		return ClassifyHip(v)
	case IndexLeanMass:
		return ClassifyLeanMassIndex(v, sex)
	case IndexFatMass:
		return ClassifyFatMassIndex(v)
	case IndexWaistHip:
		return ClassifyWaistHip(v, sex)
	case IndexWaistHeight:
		return ClassifyWaistHeight(v)
	case IndexConicity:
		return ClassifyConicity(v)
	}
	return ClassifiedIndex{Value: v}
}

// ConicityIndex = waist(m) / (0.109 · √(weight / height)).
func ConicityIndex(waistCm, weightKg, heightM float64) float64 {
	return (waistCm / 100) / (0.109 * math.Sqrt(weightKg/heightM))
}

// IndexValues holds the raw numeric index values.
type IndexValues map[IndexName]float64

// ComputeIndexValues derives the seven index values, rounded to two
// decimals.
func ComputeIndexValues(m Measurements, c Composition, p Profile) IndexValues {
	h2 := p.HeightM * p.HeightM
	return IndexValues{
		IndexWaist:       scalar.Round(m.Waist, 2),
		IndexHip:         scalar.Round(m.Hip, 2),
		IndexLeanMass:    scalar.Round(c.LeanMassKg/h2, 2),
		IndexFatMass:     scalar.Round(c.FatMassKg/h2, 2),
		IndexWaistHip:    scalar.Round(m.Waist/m.Hip, 2),
		IndexWaistHeight: scalar.Round(m.Waist/p.HeightCm(), 2),
		IndexConicity:    scalar.Round(ConicityIndex(m.Waist, p.WeightKg, p.HeightM), 2),
	}
}

// ClassifyAll classifies every value into a fresh Indices record.
func ClassifyAll(v IndexValues, sex Sex) Indices {
	return Indices{
		Waist:         ClassifyIndex(IndexWaist, v[IndexWaist], sex),
		Hip:           ClassifyIndex(IndexHip, v[IndexHip], sex),
		LeanMassIndex: ClassifyIndex(IndexLeanMass, v[IndexLeanMass], sex),
		FatMassIndex:  ClassifyIndex(IndexFatMass, v[IndexFatMass], sex),
		WaistHip:      ClassifyIndex(IndexWaistHip, v[IndexWaistHip], sex),
		WaistHeight:   ClassifyIndex(IndexWaistHeight, v[IndexWaistHeight], sex),
		Conicity:      ClassifyIndex(IndexConicity, v[IndexConicity], sex),
	}
}

// Get returns the index by name.
func (ix Indices) Get(name IndexName) ClassifiedIndex {
	switch name {
	case IndexWaist:
		return ix.Waist
	case IndexHip:
		return ix.Hip
	case IndexLeanMass:
		return ix.LeanMassIndex
	case IndexFatMass:
		return ix.FatMassIndex
	case IndexWaistHip:
		return ix.WaistHip
	case IndexWaistHeight:
		return ix.WaistHeight
	case IndexConicity:
		return ix.Conicity
	}
	return ClassifiedIndex{}
}

// Values returns the numeric values of every index.
func (ix Indices) Values() IndexValues {
	out := make(IndexValues, len(IndexNames))
	for _, n := range IndexNames {
		out[n] = ix.Get(n).Value
	}
	return out
}

// IndexLimits bound index values considered plausible for storage.
var IndexLimits = map[IndexName]Range{
	IndexWaist:       {50, 160},
	IndexHip:         {60, 170},
	IndexLeanMass:    {8, 35},
	IndexFatMass:     {0.5, 30},
	IndexWaistHip:    {0.5, 1.5},
	IndexWaistHeight: {0.3, 1.0},
	IndexConicity:    {0.9, 1.8},
}

// SanitizeIndices clamps each value into IndexLimits. Out-of-range indices
// are replaced by newly classified records; the input is left untouched.
func SanitizeIndices(ix Indices, sex Sex) Indices {
	values := ix.Values()
	for n, v := range values {
		values[n] = IndexLimits[n].clamp(v)
	}
	return ClassifyAll(values, sex)
}
