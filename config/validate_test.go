package config

import (
	"testing"

	"github.com/marcinz606/NegPy/negpyerr"
)

func TestValidateAcceptsDefault(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()): %v", err)
	}
}

func TestValidateRejectsZeroGrade(t *testing.T) {
	cfg := Default()
	cfg.Exposure.Grade = 0
	assertConfigInvalid(t, cfg)
}

func TestValidateRejectsNegativeToe(t *testing.T) {
	cfg := Default()
	cfg.Exposure.Toe = -0.1
	assertConfigInvalid(t, cfg)
}

func TestValidateRejectsOutOfRangeCLAHEStrength(t *testing.T) {
	cfg := Default()
	cfg.Lab.CLAHEStrength = 1.5
	assertConfigInvalid(t, cfg)
}

func TestValidateRejectsNonPositiveCLAHEClipLimit(t *testing.T) {
	cfg := Default()
	cfg.Lab.CLAHEClipLimit = 0
	assertConfigInvalid(t, cfg)
}

func TestValidateRejectsInvertedCrop(t *testing.T) {
	cfg := Default()
	cfg.Geometry.Crop = CropRect{X0: 0.6, Y0: 0, X1: 0.4, Y1: 1}
	assertConfigInvalid(t, cfg)
}

func TestValidateRejectsUnrecognizedRotation(t *testing.T) {
	cfg := Default()
	cfg.Geometry.Rotation = 45
	assertConfigInvalid(t, cfg)
}

func TestValidateRejectsOutOfRangeManualSpot(t *testing.T) {
	cfg := Default()
	cfg.Retouch.ManualSpots = []ManualSpot{{X: 1.2, Y: 0.5, Radius: 0.05}}
	assertConfigInvalid(t, cfg)
}

func TestValidateRejectsZeroPrintSizeWhenPolicySelected(t *testing.T) {
	cfg := Default()
	cfg.Export.SizePolicy = OutputSizePrintCM
	cfg.Export.PrintWidthCM = 0
	cfg.Export.PrintHeightCM = 20
	assertConfigInvalid(t, cfg)
}

func assertConfigInvalid(t *testing.T, cfg WorkspaceConfig) {
	t.Helper()
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected Validate to reject the config")
	}
	if !negpyerr.AsKind(err, negpyerr.ConfigInvalid) {
		t.Fatalf("expected a ConfigInvalid error, got %v", err)
	}
}
