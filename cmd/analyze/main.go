// Command analyze runs one body composition analysis offline:
// JSON profile and measurements (or landmarks) in, JSON result out.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"grimaldi/internal/composition"
	"grimaldi/internal/config"
	"grimaldi/internal/excel"
	"grimaldi/internal/log"
	"grimaldi/internal/pose"
)

// Input is the JSON document read by the command.
type Input struct {
	Name         string                    `json:"name"`
	Profile      composition.Profile       `json:"profile"`
	Measurements *composition.Measurements `json:"measurements,omitempty"`
	Pose         *pose.Result              `json:"pose,omitempty"`
	ImageURL     string                    `json:"image_url,omitempty"`
}

// Output is the JSON document written by the command.
type Output struct {
	Source         string                     `json:"source"`
	Result         *composition.Result        `json:"result"`
	Interpretation composition.Interpretation `json:"interpretation"`
}

// Measurement sources reported in Output.Source.
const (
	sourceManual       = "manual"
	sourceVision       = "vision"
	sourceProportional = "proportional"
)

func main() {
	in := flag.String("in", "-", "входной JSON, - для stdin")
	poseURL := flag.String("pose", "", "адрес сервиса позы для image_url")
	mode := flag.String("mode", "", "режим экстрактора: calibrated или hybrid")
	cfgPath := flag.String("config", "config.yaml", "файл настроек")
	xlsx := flag.Bool("xlsx", false, "сохранить отчёт xlsx в export_dir")
	flag.Parse()

	tuning, err := config.LoadTuning(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Init(tuning.LogLevel)
	if *mode == "" {
		*mode = tuning.ExtractorMode
	}

	input, err := readInput(*in)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var source pose.Source
	switch {
	case input.Pose != nil:
		source = pose.Static{pose.ViewFrontal: input.Pose}
	case *poseURL != "":
		source = pose.NewHTTPSource(*poseURL, pose.DefaultTimeout)
	}

	out, err := analyze(context.Background(), input, source, composition.NewExtractor(composition.ParseMode(*mode)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *xlsx {
		path, err := writeReport(tuning.ExportDir, input.Name, out, time.Now())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "отчёт:", path)
	}
}

func readInput(path string) (Input, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return Input{}, err
		}
		defer f.Close()
		r = f
	}

	var in Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return Input{}, fmt.Errorf("неверный JSON: %w", err)
	}
	return in, nil
}

// analyze picks the measurement source in priority order: manual values,
// landmarks, then proportions of the height.
func analyze(ctx context.Context, in Input, source pose.Source, extractor *composition.Extractor) (Output, error) {
	p := in.Profile
	if err := composition.ValidateProfile(p); err != nil {
		return Output{}, err
	}
	if !p.Sex.Valid() {
		return Output{}, composition.ValidationError{Field: "sex", Message: "Sexo inválido"}
	}

	var (
		m   composition.Measurements
		src string
	)
	switch {
	case in.Measurements != nil:
		if err := composition.ValidateMeasurements(*in.Measurements); err != nil {
			return Output{}, err
		}
		m, src = *in.Measurements, sourceManual
	case source != nil && (in.Pose != nil || in.ImageURL != ""):
		var err error
		m, err = detect(ctx, source, in.ImageURL, p, extractor)
		if err != nil {
			log.Warn("визуальный анализ недоступен, используются пропорции", "error", err)
			m, src = composition.ProportionalMeasurements(p.HeightM, p.Sex), sourceProportional
		} else {
			src = sourceVision
		}
	default:
		m, src = composition.ProportionalMeasurements(p.HeightM, p.Sex), sourceProportional
	}

	m = m.Clamp()
	res, err := composition.AnalyzeComposition(&m, &p)
	if err != nil {
		return Output{}, err
	}
	return Output{Source: src, Result: res, Interpretation: composition.InterpretResults(res)}, nil
}

func detect(ctx context.Context, source pose.Source, imageURL string, p composition.Profile, extractor *composition.Extractor) (composition.Measurements, error) {
	results, err := source.Detect(ctx, []pose.Request{{View: pose.ViewFrontal, ImageURL: imageURL}})
	if err != nil {
		return composition.Measurements{}, err
	}
	res, ok := results[pose.ViewFrontal]
	if !ok {
		return composition.Measurements{}, errors.New("нет результата для фронтального фото")
	}
	return extractor.Extract(res, p.HeightM, p.WeightKg, p.Sex)
}

func writeReport(dir, name string, out Output, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, excel.ReportFileName(name, at))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	err = excel.WriteReport(f, excel.Report{
		Name:       name,
		CreatedAt:  at,
		Result:     out.Result,
		VisionUsed: out.Source == sourceVision,
	})
	if err != nil {
		return "", err
	}
	return path, f.Close()
}
