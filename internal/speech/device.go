package speech

import (
	"os"
	"os/exec"
	"runtime"
)

// Device identifies the compute device the model runs on.
type Device string

const (
	DeviceCUDA  Device = "cuda"
	DeviceMetal Device = "metal"
	DeviceCPU   Device = "cpu"
)

// detectDevice probes for the most capable available device: CUDA first,
// then Apple Metal, then CPU. The probe runs once at adapter construction and
// the result is held for the adapter's lifetime. Finding no accelerator is
// not an error.
func detectDevice() Device {
	if cudaAvailable() {
		return DeviceCUDA
	}
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return DeviceMetal
	}
	return DeviceCPU
}

// cudaAvailable reports whether an NVIDIA driver is present on the host
func cudaAvailable() bool {
	if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
		return true
	}
	_, err := exec.LookPath("nvidia-smi")
	return err == nil
}

// computeFormat returns the numeric format used for inference on the given
// device: lower precision on accelerators, int8 on CPU. This is a
// quality/speed/memory tradeoff, not a correctness requirement.
func computeFormat(d Device) string {
	if d == DeviceCPU {
		return "int8"
	}
	return "float16"
}
