// Package cfg reads the stitching configuration file.
//
// The file is line oriented:
//
//	[global_setting]
//	rle_classes = 0
//	prob_tolerance = 0.001
//	confidence_epsilon = 1e-9
//	line_width = 0
//	output_compress = none
//	debug = false
//
// Lines starting with '#' or ';' are comments.
package cfg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	DefaultTolerance = 1e-3
	DefaultEpsilon   = 1e-9
)

// Compression codecs accepted by output_compress.
const (
	CompressNone = "none"
	CompressZstd = "zst"
	CompressGzip = "gz"
	CompressBr   = "br"
)

type CfgInfo struct {
	RunLengthClasses int     // 0 infers the width from the first store record
	Tolerance        float64 // allowed |sum-1| of a probability vector
	Epsilon          float64 // confidences closer than this are ties
	LineWidth        int     // FASTA line width, 0 writes one line
	Compress         string
	Debug            bool
}

func Default() CfgInfo {
	return CfgInfo{
		Tolerance: DefaultTolerance,
		Epsilon:   DefaultEpsilon,
		Compress:  CompressNone,
	}
}

// Suffix returns the file suffix for the configured output codec.
func (ci CfgInfo) Suffix() string {
	if ci.Compress == CompressNone || ci.Compress == "" {
		return ""
	}
	return "." + ci.Compress
}

// ParseCfg reads fn; an empty fn returns the defaults.
func ParseCfg(fn string) (CfgInfo, error) {
	if fn == "" {
		return Default(), nil
	}
	inFile, err := os.Open(fn)
	if err != nil {
		return CfgInfo{}, err
	}
	defer inFile.Close()
	ci, err := Parse(inFile)
	if err != nil {
		return ci, fmt.Errorf("[ParseCfg] %s: %w", fn, err)
	}
	return ci, nil
}

func Parse(r io.Reader) (cfgInfo CfgInfo, err error) {
	cfgInfo = Default()
	reader := bufio.NewReader(r)
	lineNum := 0
	eof := false
	for !eof {
		var line string
		line, err = reader.ReadString('\n')
		if err == io.EOF {
			err = nil
			eof = true
		} else if err != nil {
			return
		}
		lineNum++
		if i := strings.IndexAny(line, "#;"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if strings.HasPrefix(fields[0], "[") {
			if fields[0] != "[global_setting]" {
				return cfgInfo, fmt.Errorf("line %d: unknown section %s", lineNum, fields[0])
			}
			continue
		}
		if len(fields) != 3 || fields[1] != "=" {
			return cfgInfo, fmt.Errorf("line %d: want 'key = value', got %q", lineNum, strings.TrimSpace(line))
		}
		v := fields[2]
		switch fields[0] {
		case "rle_classes":
			cfgInfo.RunLengthClasses, err = strconv.Atoi(v)
			if err == nil && cfgInfo.RunLengthClasses < 0 {
				err = fmt.Errorf("must be >= 0")
			}
		case "prob_tolerance":
			cfgInfo.Tolerance, err = strconv.ParseFloat(v, 64)
			if err == nil && !(cfgInfo.Tolerance > 0 && cfgInfo.Tolerance < 1) {
				err = fmt.Errorf("must be in (0, 1)")
			}
		case "confidence_epsilon":
			cfgInfo.Epsilon, err = strconv.ParseFloat(v, 64)
			if err == nil && !(cfgInfo.Epsilon >= 0 && cfgInfo.Epsilon < 1) {
				err = fmt.Errorf("must be in [0, 1)")
			}
		case "line_width":
			cfgInfo.LineWidth, err = strconv.Atoi(v)
			if err == nil && cfgInfo.LineWidth < 0 {
				err = fmt.Errorf("must be >= 0")
			}
		case "output_compress":
			switch v {
			case CompressNone, CompressZstd, CompressGzip, CompressBr:
				cfgInfo.Compress = v
			default:
				err = fmt.Errorf("must be one of none|zst|gz|br")
			}
		case "debug":
			cfgInfo.Debug, err = strconv.ParseBool(v)
		default:
			return cfgInfo, fmt.Errorf("line %d: unknown key %s", lineNum, fields[0])
		}
		if err != nil {
			return cfgInfo, fmt.Errorf("line %d: %s = %s: %w", lineNum, fields[0], v, err)
		}
	}
	return
}
