// SPDX-License-Identifier: MIT
package audio

import "fmt"

// ListDevices prints all capture-capable sources, marking the ones that
// look like loopback paths.
func ListDevices(host Host) error {
	devices, err := host.CaptureDevices()
	if err != nil {
		return err
	}

	fmt.Printf("\nAvailable Capture Devices\n\n")
	for _, d := range devices {
		tag := ""
		if d.IsLoopback {
			tag = " [loopback]"
		}
		fmt.Printf("[%d] %s%s\n", d.ID, d.Name, tag)
		fmt.Printf("    Channels: %d, Default sample rate: %.0f Hz\n\n",
			d.Channels, d.DefaultSampleRate)
	}
	return nil
}
