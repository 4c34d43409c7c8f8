package utils

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/jwaldrip/odin/cli"
)

type ArgsOpt struct {
	Prefix     string
	NumCPU     int
	CfgFn      string
	Cpuprofile string
}

// CheckGlobalArgs returns the arguments shared by every subcommand.
func CheckGlobalArgs(c cli.Command) (opt ArgsOpt, err error) {
	opt.Prefix = c.Flag("p").String()
	if opt.Prefix == "" {
		return opt, fmt.Errorf("[CheckGlobalArgs] args 'p' not set")
	}
	opt.CfgFn = c.Flag("C").String()
	opt.Cpuprofile = c.Flag("cpuprofile").String()

	var ok bool
	opt.NumCPU, ok = c.Flag("t").Get().(int)
	if !ok {
		return opt, fmt.Errorf("[CheckGlobalArgs] args 't': %v set error", c.Flag("t").String())
	}
	opt.NumCPU = NumWorkers(opt.NumCPU)
	return opt, nil
}

// NumWorkers bounds a requested worker count to [1, NumCPU]; n <= 0 selects NumCPU.
func NumWorkers(n int) int {
	max := runtime.NumCPU()
	if n <= 0 || n > max {
		return max
	}
	return n
}

func MaxInt(a, b int) int {
	if a > b {
		return a
	} else {
		return b
	}
}

func MinInt(a, b int) int {
	if a > b {
		return b
	} else {
		return a
	}
}

var errNotDigit = errors.New("can't convert to digit")

// ByteArrInt parses a non-negative decimal integer without allocating.
func ByteArrInt(id []byte) (d int, err error) {
	if len(id) == 0 {
		return 0, errNotDigit
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return d, errNotDigit
		}
		if d > (math.MaxInt-int(c-'0'))/10 {
			return d, fmt.Errorf("integer %q overflows", id)
		}
		d = d*10 + int(c-'0')
	}
	return d, nil
}

func Bytes2String(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}
