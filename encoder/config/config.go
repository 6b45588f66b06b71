/*
NAME
  config.go

DESCRIPTION
  config.go provides the configuration record of an encoder instance.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for the encoder.
package config

import (
	"errors"

	"github.com/ausocean/utils/logging"
)

// Enums for prediction structures, rate control modes, fractional search
// metrics and kernel selection.
const (
	// Indicates no option has been set.
	NothingDefined = iota

	// Prediction structures.
	PredLowDelayP
	PredRandomAccess

	// Rate control modes.
	RCModeCQP
	RCModeVBR
)

// Fractional search metrics.
const (
	MetricSAD = iota
	MetricSSD
)

// Kernel selections.
const (
	AsmAuto = iota
	AsmC
	AsmAVX2
	AsmAVX512
)

// Config provides the parameters of an encoder instance. Zero values are
// replaced by defaults on Validate; values out of range are errors.
type Config struct {
	// Source dimensions in luma samples. Both must be even and are required.
	SourceWidth  uint
	SourceHeight uint

	BitDepth  uint // Sample bit depth; only 8 is supported.
	FrameRate uint // Frames per second, used by rate control and the IVF header.

	// IntraPeriod is the number of pictures between intra pictures. The
	// first picture and scene changes are always intra.
	IntraPeriod uint

	// PredStructure selects PredLowDelayP or PredRandomAccess. Random access
	// codes mini-GOPs of 2^HierarchicalLevels pictures out of display order.
	PredStructure      uint8
	HierarchicalLevels uint

	// RateControlMode selects RCModeCQP or RCModeVBR. QP is the base
	// quantizer for CQP; TargetBitRate (bits per second) drives VBR. Every
	// chosen QP is clamped to [MinQP, MaxQP].
	RateControlMode uint8
	TargetBitRate   uint
	QP              uint
	MinQP           uint
	MaxQP           uint

	// Full-pel search window.
	SearchAreaWidth  uint
	SearchAreaHeight uint

	// Hierarchical motion estimation.
	DisableHME       bool
	DisableHMELevel0 bool
	DisableHMELevel1 bool
	DisableHMELevel2 bool
	HMELevel0Width   uint
	HMELevel0Height  uint
	HMELevel1Width   uint
	HMELevel1Height  uint
	HMELevel2Width   uint
	HMELevel2Height  uint
	HMERegionsX      uint
	HMERegionsY      uint

	// Sub-pel refinement and bi-prediction.
	DisableHalfPel         bool
	DisableQuarterPel      bool
	DisableBiPred          bool
	FractionalSearchMetric uint8 // MetricSAD or MetricSSD.

	RefsPerList uint // References searched per list.

	DisableSceneChange bool

	// Stage instance counts.
	PictureAnalysisProcesses  uint
	MotionEstimationProcesses uint
	SourceBasedProcesses      uint
	EncDecProcesses           uint
	EntropyCodingProcesses    uint

	InputBuffers  uint // Input picture buffers.
	OutputBuffers uint // Output packet buffers.

	// AsmType selects the pixel kernels. AsmAuto picks the best supported by
	// the CPU.
	AsmType uint8

	// Logger holds an implementation of the Logger interface. This must be
	// set for the encoder to work correctly.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	Suppress bool // Holds logger suppression state.
}

// Validate replaces unset fields by their defaults and checks every field
// for range. It returns the errors of all invalid fields.
func (c *Config) Validate() error {
	var errs []error
	for _, v := range Variables {
		if v.Validate == nil {
			continue
		}
		if err := v.Validate(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

// LogInvalidField logs that field name was unset or bad and is defaulting.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}

// MiniGOPSize returns the number of pictures per mini-GOP.
func (c *Config) MiniGOPSize() int {
	if c.PredStructure == PredLowDelayP {
		return 1
	}
	return 1 << c.HierarchicalLevels
}
