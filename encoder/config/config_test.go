/*
NAME
  config_test.go

DESCRIPTION
  config_test.go provides testing for the Config struct methods (Validate and Update).

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/google/go-cmp/cmp"
)

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

func TestValidate(t *testing.T) {
	dl := &dumbLogger{}

	want := Config{
		Logger:                    dl,
		SourceWidth:               320,
		SourceHeight:              240,
		BitDepth:                  defaultBitDepth,
		FrameRate:                 defaultFrameRate,
		IntraPeriod:               defaultIntraPeriod,
		PredStructure:             defaultPredStructure,
		HierarchicalLevels:        defaultHierarchicalLevels,
		RateControlMode:           defaultRateControlMode,
		TargetBitRate:             defaultTargetBitRate,
		QP:                        defaultQP,
		MaxQP:                     defaultMaxQP,
		SearchAreaWidth:           defaultSearchArea,
		SearchAreaHeight:          defaultSearchArea,
		HMELevel0Width:            defaultHMELevel0Width,
		HMELevel0Height:           defaultHMELevel0Height,
		HMELevel1Width:            defaultHMELevelWidth,
		HMELevel1Height:           defaultHMELevelHeight,
		HMELevel2Width:            defaultHMELevelWidth,
		HMELevel2Height:           defaultHMELevelHeight,
		HMERegionsX:               defaultHMERegions,
		HMERegionsY:               defaultHMERegions,
		RefsPerList:               defaultRefsPerList,
		PictureAnalysisProcesses:  defaultProcesses,
		MotionEstimationProcesses: defaultProcesses,
		SourceBasedProcesses:      defaultProcesses,
		EncDecProcesses:           defaultProcesses,
		EntropyCodingProcesses:    defaultProcesses,
		InputBuffers:              defaultInputBuffers,
		OutputBuffers:             defaultOutputBuffers,
		LogLevel:                  defaultVerbosity,
	}

	got := Config{Logger: dl, SourceWidth: 320, SourceHeight: 240, LogLevel: logging.Error}
	err := (&got).Validate()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	if !cmp.Equal(got, want) {
		t.Errorf("configs not equal\n%s", cmp.Diff(want, got))
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"missing width", func(c *Config) { c.SourceWidth = 0 }},
		{"odd height", func(c *Config) { c.SourceHeight = 241 }},
		{"too large", func(c *Config) { c.SourceWidth = 10000 }},
		{"bit depth", func(c *Config) { c.BitDepth = 10 }},
		{"levels", func(c *Config) { c.HierarchicalLevels = 4 }},
		{"qp", func(c *Config) { c.QP = 64 }},
		{"qp bounds", func(c *Config) { c.MinQP = 40; c.MaxQP = 30 }},
		{"search area", func(c *Config) { c.SearchAreaWidth = 300 }},
		{"regions", func(c *Config) { c.HMERegionsX = 5 }},
		{"refs", func(c *Config) { c.RefsPerList = 3 }},
		{"processes", func(c *Config) { c.EncDecProcesses = 65 }},
		{"pred structure", func(c *Config) { c.PredStructure = RCModeVBR }},
		{"rate control", func(c *Config) { c.RateControlMode = PredLowDelayP }},
		{"metric", func(c *Config) { c.FractionalSearchMetric = 2 }},
		{"asm", func(c *Config) { c.AsmType = 9 }},
	}
	for _, test := range tests {
		c := Config{Logger: &dumbLogger{}, SourceWidth: 320, SourceHeight: 240}
		test.mod(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}

func TestUpdate(t *testing.T) {
	updateMap := map[string]string{
		"AsmType":                   "avx2",
		"BiPred":                    "false",
		"BitDepth":                  "8",
		"EncDecProcesses":           "3",
		"EntropyCodingProcesses":    "2",
		"FractionalSearchMetric":    "SSD",
		"FrameRate":                 "30",
		"HalfPel":                   "true",
		"HierarchicalLevels":        "2",
		"HME":                       "true",
		"HMELevel1":                 "false",
		"HMELevel0Width":            "64",
		"HMELevel0Height":           "48",
		"HMELevel2Width":            "8",
		"HMERegionsX":               "1",
		"InputBuffers":              "12",
		"IntraPeriod":               "60",
		"logging":                   "Debug",
		"MaxQP":                     "50",
		"MinQP":                     "10",
		"MotionEstimationProcesses": "4",
		"PredStructure":             "LowDelayP",
		"QP":                        "40",
		"QuarterPel":                "false",
		"RateControlMode":           "VBR",
		"RefsPerList":               "2",
		"SceneChange":               "false",
		"SearchAreaWidth":           "96",
		"SourceHeight":              "720",
		"SourceWidth":               "1280",
		"Suppress":                  "true",
		"TargetBitRate":             "500000",
	}

	dl := &dumbLogger{}

	want := Config{
		Logger:                    dl,
		AsmType:                   AsmAVX2,
		DisableBiPred:             true,
		BitDepth:                  8,
		EncDecProcesses:           3,
		EntropyCodingProcesses:    2,
		FractionalSearchMetric:    MetricSSD,
		FrameRate:                 30,
		HierarchicalLevels:        2,
		DisableHMELevel1:          true,
		HMELevel0Width:            64,
		HMELevel0Height:           48,
		HMELevel2Width:            8,
		HMERegionsX:               1,
		InputBuffers:              12,
		IntraPeriod:               60,
		LogLevel:                  logging.Debug,
		MaxQP:                     50,
		MinQP:                     10,
		MotionEstimationProcesses: 4,
		PredStructure:             PredLowDelayP,
		QP:                        40,
		DisableQuarterPel:         true,
		RateControlMode:           RCModeVBR,
		RefsPerList:               2,
		DisableSceneChange:        true,
		SearchAreaWidth:           96,
		SourceHeight:              720,
		SourceWidth:               1280,
		Suppress:                  true,
		TargetBitRate:             500000,
	}

	got := Config{Logger: dl}
	got.Update(updateMap)
	if !cmp.Equal(want, got) {
		t.Errorf("configs not equal\n%s", cmp.Diff(want, got))
	}
}

func TestMiniGOPSize(t *testing.T) {
	tests := []struct {
		pred   uint8
		levels uint
		want   int
	}{
		{PredLowDelayP, 3, 1},
		{PredRandomAccess, 1, 2},
		{PredRandomAccess, 3, 8},
	}
	for _, test := range tests {
		c := Config{PredStructure: test.pred, HierarchicalLevels: test.levels}
		if got := c.MiniGOPSize(); got != test.want {
			t.Errorf("MiniGOPSize(%d, %d) = %d, want %d", test.pred, test.levels, got, test.want)
		}
	}
}
