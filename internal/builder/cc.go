package builder

import (
	"os/exec"
)

var (
	commonCCompilers   = []string{"clang", "gcc", "icx", "icc", "tcc", "cl"}
	commonCxxCompilers = []string{"clang++", "g++", "clang", "gcc", "icpx", "icx", "icpc", "icc", "cl"}
)

// lookPath is swapped out in tests
var lookPath = exec.LookPath

// findCompilers picks the C and C++ compilers written into the build file.
// $CC and $CXX win, then the first common compiler found on PATH. Either
// result may be empty when nothing is found; the build engine reports that.
func findCompilers(env ConfigEnv) (cc, cxx string) {
	cc = env.Environ["CC"]
	cxx = env.Environ["CXX"]

	if cc == "" {
		cc = firstInPath(commonCCompilers)
	}
	if cxx == "" {
		cxx = firstInPath(commonCxxCompilers)
	}
	return cc, cxx
}

func firstInPath(compilers []string) string {
	for _, compiler := range compilers {
		if path, err := lookPath(compiler); err == nil {
			return path
		}
	}
	return ""
}
