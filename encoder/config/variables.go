/*
NAME
  variables.go

DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function that defaults unset fields
  and checks the range of the corresponding field value in the Config.

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
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Config map Keys.
const (
	KeyAsmType                   = "AsmType"
	KeyBitDepth                  = "BitDepth"
	KeyBiPred                    = "BiPred"
	KeyEncDecProcesses           = "EncDecProcesses"
	KeyEntropyCodingProcesses    = "EntropyCodingProcesses"
	KeyFractionalSearchMetric    = "FractionalSearchMetric"
	KeyFrameRate                 = "FrameRate"
	KeyHalfPel                   = "HalfPel"
	KeyHierarchicalLevels        = "HierarchicalLevels"
	KeyHME                       = "HME"
	KeyHMELevel0                 = "HMELevel0"
	KeyHMELevel1                 = "HMELevel1"
	KeyHMELevel2                 = "HMELevel2"
	KeyHMELevel0Width            = "HMELevel0Width"
	KeyHMELevel0Height           = "HMELevel0Height"
	KeyHMELevel1Width            = "HMELevel1Width"
	KeyHMELevel1Height           = "HMELevel1Height"
	KeyHMELevel2Width            = "HMELevel2Width"
	KeyHMELevel2Height           = "HMELevel2Height"
	KeyHMERegionsX               = "HMERegionsX"
	KeyHMERegionsY               = "HMERegionsY"
	KeyInputBuffers              = "InputBuffers"
	KeyIntraPeriod               = "IntraPeriod"
	KeyLogging                   = "logging"
	KeyMaxQP                     = "MaxQP"
	KeyMinQP                     = "MinQP"
	KeyMotionEstimationProcesses = "MotionEstimationProcesses"
	KeyOutputBuffers             = "OutputBuffers"
	KeyPictureAnalysisProcesses  = "PictureAnalysisProcesses"
	KeyPredStructure             = "PredStructure"
	KeyQP                        = "QP"
	KeyQuarterPel                = "QuarterPel"
	KeyRateControlMode           = "RateControlMode"
	KeyRefsPerList               = "RefsPerList"
	KeySceneChange               = "SceneChange"
	KeySearchAreaHeight          = "SearchAreaHeight"
	KeySearchAreaWidth           = "SearchAreaWidth"
	KeySourceBasedProcesses      = "SourceBasedProcesses"
	KeySourceHeight              = "SourceHeight"
	KeySourceWidth               = "SourceWidth"
	KeySuppress                  = "Suppress"
	KeyTargetBitRate             = "TargetBitRate"
)

// Config map parameter types.
const (
	typeUint = "uint"
	typeBool = "bool"
)

// Default variable values.
const (
	defaultBitDepth           = 8
	defaultFrameRate          = 25
	defaultIntraPeriod        = 32
	defaultPredStructure      = PredRandomAccess
	defaultHierarchicalLevels = 3
	defaultRateControlMode    = RCModeCQP
	defaultTargetBitRate      = 2000000
	defaultQP                 = 32
	defaultMaxQP              = 63
	defaultVerbosity          = logging.Error

	// Motion estimation defaults.
	defaultSearchArea      = 64
	defaultHMELevel0Width  = 48
	defaultHMELevel0Height = 32
	defaultHMELevelWidth   = 16
	defaultHMELevelHeight  = 16
	defaultHMERegions      = 2
	defaultRefsPerList     = 1

	// Buffer defaults.
	defaultInputBuffers  = 8
	defaultOutputBuffers = 16
)

// Limits.
const (
	minDimension     = 64
	maxDimension     = 8192
	maxFrameRate     = 240
	maxLevels        = 3
	maxQP            = 63
	maxSearchArea    = 256
	maxHMEArea       = 256
	maxHMERegions    = 4
	maxRefsPerList   = 2
	maxProcesses     = 64
	maxBuffers       = 256
	maxIntraPeriod   = 1 << 16
	maxTargetBitRate = 1 << 30
)

// defaultProcesses is the default instance count of parallel stages: one
// per CPU, up to 16.
var defaultProcesses = func() uint {
	n := runtime.NumCPU()
	if n > 16 {
		n = 16
	}
	return uint(n)
}()

// Variables describes the variables that can be used for encoder control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config) error
}{
	{
		Name: KeyAsmType,
		Type: "enum:auto,c,avx2,avx512",
		Update: func(c *Config, v string) {
			c.AsmType = parseEnum(KeyAsmType, v, map[string]uint8{"auto": AsmAuto, "c": AsmC, "avx2": AsmAVX2, "avx512": AsmAVX512}, c)
		},
		Validate: func(c *Config) error {
			if c.AsmType > AsmAVX512 {
				return fmt.Errorf("%s invalid: %d", KeyAsmType, c.AsmType)
			}
			return nil
		},
	},
	{
		Name:   KeyBitDepth,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.BitDepth = parseUint(KeyBitDepth, v, c) },
		Validate: func(c *Config) error {
			c.BitDepth = defaultIfZero(KeyBitDepth, c.BitDepth, defaultBitDepth, c)
			if c.BitDepth != 8 {
				return fmt.Errorf("%s unsupported: %d", KeyBitDepth, c.BitDepth)
			}
			return nil
		},
	},
	{
		Name:   KeyBiPred,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.DisableBiPred = !parseBool(KeyBiPred, v, c) },
	},
	{
		Name:   KeyEncDecProcesses,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.EncDecProcesses = parseUint(KeyEncDecProcesses, v, c) },
		Validate: func(c *Config) error {
			return processes(KeyEncDecProcesses, &c.EncDecProcesses, c)
		},
	},
	{
		Name:   KeyEntropyCodingProcesses,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.EntropyCodingProcesses = parseUint(KeyEntropyCodingProcesses, v, c) },
		Validate: func(c *Config) error {
			return processes(KeyEntropyCodingProcesses, &c.EntropyCodingProcesses, c)
		},
	},
	{
		Name: KeyFractionalSearchMetric,
		Type: "enum:SAD,SSD",
		Update: func(c *Config, v string) {
			c.FractionalSearchMetric = parseEnum(KeyFractionalSearchMetric, v, map[string]uint8{"sad": MetricSAD, "ssd": MetricSSD}, c)
		},
		Validate: func(c *Config) error {
			if c.FractionalSearchMetric > MetricSSD {
				return fmt.Errorf("%s invalid: %d", KeyFractionalSearchMetric, c.FractionalSearchMetric)
			}
			return nil
		},
	},
	{
		Name:   KeyFrameRate,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FrameRate = parseUint(KeyFrameRate, v, c) },
		Validate: func(c *Config) error {
			c.FrameRate = defaultIfZero(KeyFrameRate, c.FrameRate, defaultFrameRate, c)
			return inRange(KeyFrameRate, c.FrameRate, 1, maxFrameRate)
		},
	},
	{
		Name:   KeyHalfPel,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.DisableHalfPel = !parseBool(KeyHalfPel, v, c) },
	},
	{
		Name:   KeyHierarchicalLevels,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.HierarchicalLevels = parseUint(KeyHierarchicalLevels, v, c) },
		Validate: func(c *Config) error {
			c.HierarchicalLevels = defaultIfZero(KeyHierarchicalLevels, c.HierarchicalLevels, defaultHierarchicalLevels, c)
			return inRange(KeyHierarchicalLevels, c.HierarchicalLevels, 1, maxLevels)
		},
	},
	{
		Name:   KeyHME,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.DisableHME = !parseBool(KeyHME, v, c) },
	},
	{
		Name:   KeyHMELevel0,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.DisableHMELevel0 = !parseBool(KeyHMELevel0, v, c) },
	},
	{
		Name:   KeyHMELevel1,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.DisableHMELevel1 = !parseBool(KeyHMELevel1, v, c) },
	},
	{
		Name:   KeyHMELevel2,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.DisableHMELevel2 = !parseBool(KeyHMELevel2, v, c) },
	},
	{
		Name:   KeyHMELevel0Width,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.HMELevel0Width = parseUint(KeyHMELevel0Width, v, c) },
		Validate: func(c *Config) error {
			return area(KeyHMELevel0Width, &c.HMELevel0Width, defaultHMELevel0Width, maxHMEArea, c)
		},
	},
	{
		Name:   KeyHMELevel0Height,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.HMELevel0Height = parseUint(KeyHMELevel0Height, v, c) },
		Validate: func(c *Config) error {
			return area(KeyHMELevel0Height, &c.HMELevel0Height, defaultHMELevel0Height, maxHMEArea, c)
		},
	},
	{
		Name:   KeyHMELevel1Width,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.HMELevel1Width = parseUint(KeyHMELevel1Width, v, c) },
		Validate: func(c *Config) error {
			return area(KeyHMELevel1Width, &c.HMELevel1Width, defaultHMELevelWidth, maxHMEArea, c)
		},
	},
	{
		Name:   KeyHMELevel1Height,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.HMELevel1Height = parseUint(KeyHMELevel1Height, v, c) },
		Validate: func(c *Config) error {
			return area(KeyHMELevel1Height, &c.HMELevel1Height, defaultHMELevelHeight, maxHMEArea, c)
		},
	},
	{
		Name:   KeyHMELevel2Width,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.HMELevel2Width = parseUint(KeyHMELevel2Width, v, c) },
		Validate: func(c *Config) error {
			return area(KeyHMELevel2Width, &c.HMELevel2Width, defaultHMELevelWidth, maxHMEArea, c)
		},
	},
	{
		Name:   KeyHMELevel2Height,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.HMELevel2Height = parseUint(KeyHMELevel2Height, v, c) },
		Validate: func(c *Config) error {
			return area(KeyHMELevel2Height, &c.HMELevel2Height, defaultHMELevelHeight, maxHMEArea, c)
		},
	},
	{
		Name:   KeyHMERegionsX,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.HMERegionsX = parseUint(KeyHMERegionsX, v, c) },
		Validate: func(c *Config) error {
			c.HMERegionsX = defaultIfZero(KeyHMERegionsX, c.HMERegionsX, defaultHMERegions, c)
			if err := inRange(KeyHMERegionsX, c.HMERegionsX, 1, maxHMERegions); err != nil {
				return err
			}
			if c.HMERegionsX > c.HMELevel0Width {
				return fmt.Errorf("%s %d exceeds %s %d", KeyHMERegionsX, c.HMERegionsX, KeyHMELevel0Width, c.HMELevel0Width)
			}
			return nil
		},
	},
	{
		Name:   KeyHMERegionsY,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.HMERegionsY = parseUint(KeyHMERegionsY, v, c) },
		Validate: func(c *Config) error {
			c.HMERegionsY = defaultIfZero(KeyHMERegionsY, c.HMERegionsY, defaultHMERegions, c)
			if err := inRange(KeyHMERegionsY, c.HMERegionsY, 1, maxHMERegions); err != nil {
				return err
			}
			if c.HMERegionsY > c.HMELevel0Height {
				return fmt.Errorf("%s %d exceeds %s %d", KeyHMERegionsY, c.HMERegionsY, KeyHMELevel0Height, c.HMELevel0Height)
			}
			return nil
		},
	},
	{
		Name:   KeyInputBuffers,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.InputBuffers = parseUint(KeyInputBuffers, v, c) },
		Validate: func(c *Config) error {
			c.InputBuffers = defaultIfZero(KeyInputBuffers, c.InputBuffers, defaultInputBuffers, c)
			return inRange(KeyInputBuffers, c.InputBuffers, 1, maxBuffers)
		},
	},
	{
		Name:   KeyIntraPeriod,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.IntraPeriod = parseUint(KeyIntraPeriod, v, c) },
		Validate: func(c *Config) error {
			c.IntraPeriod = defaultIfZero(KeyIntraPeriod, c.IntraPeriod, defaultIntraPeriod, c)
			return inRange(KeyIntraPeriod, c.IntraPeriod, 1, maxIntraPeriod)
		},
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) error {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
			return nil
		},
	},
	{
		Name:   KeyMaxQP,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MaxQP = parseUint(KeyMaxQP, v, c) },
		Validate: func(c *Config) error {
			c.MaxQP = defaultIfZero(KeyMaxQP, c.MaxQP, defaultMaxQP, c)
			return inRange(KeyMaxQP, c.MaxQP, 1, maxQP)
		},
	},
	{
		Name:   KeyMinQP,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MinQP = parseUint(KeyMinQP, v, c) },
		Validate: func(c *Config) error {
			if c.MinQP > c.MaxQP {
				return fmt.Errorf("%s %d exceeds %s %d", KeyMinQP, c.MinQP, KeyMaxQP, c.MaxQP)
			}
			return nil
		},
	},
	{
		Name:   KeyMotionEstimationProcesses,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MotionEstimationProcesses = parseUint(KeyMotionEstimationProcesses, v, c) },
		Validate: func(c *Config) error {
			return processes(KeyMotionEstimationProcesses, &c.MotionEstimationProcesses, c)
		},
	},
	{
		Name:   KeyOutputBuffers,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.OutputBuffers = parseUint(KeyOutputBuffers, v, c) },
		Validate: func(c *Config) error {
			c.OutputBuffers = defaultIfZero(KeyOutputBuffers, c.OutputBuffers, defaultOutputBuffers, c)
			return inRange(KeyOutputBuffers, c.OutputBuffers, 1, maxBuffers)
		},
	},
	{
		Name:   KeyPictureAnalysisProcesses,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.PictureAnalysisProcesses = parseUint(KeyPictureAnalysisProcesses, v, c) },
		Validate: func(c *Config) error {
			return processes(KeyPictureAnalysisProcesses, &c.PictureAnalysisProcesses, c)
		},
	},
	{
		Name: KeyPredStructure,
		Type: "enum:LowDelayP,RandomAccess",
		Update: func(c *Config, v string) {
			c.PredStructure = parseEnum(KeyPredStructure, v, map[string]uint8{"lowdelayp": PredLowDelayP, "randomaccess": PredRandomAccess}, c)
		},
		Validate: func(c *Config) error {
			switch c.PredStructure {
			case PredLowDelayP, PredRandomAccess:
			case NothingDefined:
				c.LogInvalidField(KeyPredStructure, defaultPredStructure)
				c.PredStructure = defaultPredStructure
			default:
				return fmt.Errorf("%s invalid: %d", KeyPredStructure, c.PredStructure)
			}
			return nil
		},
	},
	{
		Name:   KeyQP,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.QP = parseUint(KeyQP, v, c) },
		Validate: func(c *Config) error {
			c.QP = defaultIfZero(KeyQP, c.QP, defaultQP, c)
			return inRange(KeyQP, c.QP, 1, maxQP)
		},
	},
	{
		Name:   KeyQuarterPel,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.DisableQuarterPel = !parseBool(KeyQuarterPel, v, c) },
	},
	{
		Name: KeyRateControlMode,
		Type: "enum:CQP,VBR",
		Update: func(c *Config, v string) {
			c.RateControlMode = parseEnum(KeyRateControlMode, v, map[string]uint8{"cqp": RCModeCQP, "vbr": RCModeVBR}, c)
		},
		Validate: func(c *Config) error {
			switch c.RateControlMode {
			case RCModeCQP, RCModeVBR:
			case NothingDefined:
				c.LogInvalidField(KeyRateControlMode, defaultRateControlMode)
				c.RateControlMode = defaultRateControlMode
			default:
				return fmt.Errorf("%s invalid: %d", KeyRateControlMode, c.RateControlMode)
			}
			return nil
		},
	},
	{
		Name:   KeyRefsPerList,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.RefsPerList = parseUint(KeyRefsPerList, v, c) },
		Validate: func(c *Config) error {
			c.RefsPerList = defaultIfZero(KeyRefsPerList, c.RefsPerList, defaultRefsPerList, c)
			return inRange(KeyRefsPerList, c.RefsPerList, 1, maxRefsPerList)
		},
	},
	{
		Name:   KeySceneChange,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.DisableSceneChange = !parseBool(KeySceneChange, v, c) },
	},
	{
		Name:   KeySearchAreaHeight,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.SearchAreaHeight = parseUint(KeySearchAreaHeight, v, c) },
		Validate: func(c *Config) error {
			return area(KeySearchAreaHeight, &c.SearchAreaHeight, defaultSearchArea, maxSearchArea, c)
		},
	},
	{
		Name:   KeySearchAreaWidth,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.SearchAreaWidth = parseUint(KeySearchAreaWidth, v, c) },
		Validate: func(c *Config) error {
			return area(KeySearchAreaWidth, &c.SearchAreaWidth, defaultSearchArea, maxSearchArea, c)
		},
	},
	{
		Name:   KeySourceBasedProcesses,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.SourceBasedProcesses = parseUint(KeySourceBasedProcesses, v, c) },
		Validate: func(c *Config) error {
			return processes(KeySourceBasedProcesses, &c.SourceBasedProcesses, c)
		},
	},
	{
		Name:     KeySourceHeight,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.SourceHeight = parseUint(KeySourceHeight, v, c) },
		Validate: func(c *Config) error { return dimension(KeySourceHeight, c.SourceHeight) },
	},
	{
		Name:     KeySourceWidth,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.SourceWidth = parseUint(KeySourceWidth, v, c) },
		Validate: func(c *Config) error { return dimension(KeySourceWidth, c.SourceWidth) },
	},
	{
		Name:   KeySuppress,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Suppress = parseBool(KeySuppress, v, c) },
	},
	{
		Name:   KeyTargetBitRate,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.TargetBitRate = parseUint(KeyTargetBitRate, v, c) },
		Validate: func(c *Config) error {
			c.TargetBitRate = defaultIfZero(KeyTargetBitRate, c.TargetBitRate, defaultTargetBitRate, c)
			return inRange(KeyTargetBitRate, c.TargetBitRate, 1, maxTargetBitRate)
		},
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

func parseEnum(n, v string, enums map[string]uint8, c *Config) uint8 {
	_v, ok := enums[strings.ToLower(v)]
	if !ok {
		c.Logger.Warning(fmt.Sprintf("invalid value for %s param", n), "value", v)
	}
	return _v
}

func defaultIfZero(n string, v uint, def uint, c *Config) uint {
	if v == 0 {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}

func inRange(n string, v, lo, hi uint) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s out of range [%d, %d]: %d", n, lo, hi, v)
	}
	return nil
}

func dimension(n string, v uint) error {
	if v%2 != 0 {
		return fmt.Errorf("%s must be even: %d", n, v)
	}
	return inRange(n, v, minDimension, maxDimension)
}

func area(n string, v *uint, def, hi uint, c *Config) error {
	*v = defaultIfZero(n, *v, def, c)
	return inRange(n, *v, 1, hi)
}

func processes(n string, v *uint, c *Config) error {
	*v = defaultIfZero(n, *v, defaultProcesses, c)
	return inRange(n, *v, 1, maxProcesses)
}
