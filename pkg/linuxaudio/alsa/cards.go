//go:build linux

package alsa

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

// ListCards returns all sound cards known to the kernel, in card order.
func ListCards() ([]Card, error) {
	var cards []Card

	for cardNum := 0; ; cardNum++ {
		info, ctlFd, err := openCard(cardNum)
		if err != nil {
			if os.IsNotExist(err) || err == syscall.ENOENT {
				break // No more cards
			}
			continue // Skip this card
		}
		syscall.Close(ctlFd)

		driver := cstr(info.driver[:])
		components := cstr(info.components[:])
		cards = append(cards, Card{
			Number:     cardNum,
			ID:         cstr(info.id[:]),
			Name:       cstr(info.name[:]),
			LongName:   cstr(info.longname[:]),
			Driver:     driver,
			MixerName:  cstr(info.mixername[:]),
			Components: components,
			IsUSB:      isUSBCard(driver, components),
		})
	}

	return cards, nil
}

// ListPlaybackDevices returns all PCM playback devices across all cards.
func ListPlaybackDevices() ([]Device, error) {
	var devices []Device

	for cardNum := 0; ; cardNum++ {
		info, ctlFd, err := openCard(cardNum)
		if err != nil {
			if os.IsNotExist(err) || err == syscall.ENOENT {
				break
			}
			continue
		}

		deviceNum := int32(-1)
		for {
			if err := ioctl(uintptr(ctlFd), sndrvCtlIoctlPCMNextDevice, unsafe.Pointer(&deviceNum)); err != nil {
				break
			}
			if deviceNum < 0 {
				break // No more devices
			}

			pcmInfo := sndPCMInfo{
				device:    uint32(deviceNum),
				subdevice: 0,
				stream:    StreamPlayback,
			}
			if err := ioctl(uintptr(ctlFd), sndrvCtlIoctlPCMInfo, unsafe.Pointer(&pcmInfo)); err != nil {
				continue // Device doesn't support playback
			}

			devices = append(devices, Device{
				CardNumber:   cardNum,
				CardID:       cstr(info.id[:]),
				CardName:     cstr(info.longname[:]),
				DeviceNumber: int(deviceNum),
				DeviceName:   cstr(pcmInfo.name[:]),
				ALSADevice:   FormatALSADevice(cardNum, int(deviceNum)),
			})
		}

		syscall.Close(ctlFd)
	}

	return devices, nil
}

// openCard opens the control device for a card and reads its card info.
// The caller owns the returned fd on success.
func openCard(cardNum int) (*sndCtlCardInfo, int, error) {
	ctlPath := fmt.Sprintf("/dev/snd/controlC%d", cardNum)
	ctlFd, err := syscall.Open(ctlPath, syscall.O_RDONLY, 0)
	if err != nil {
		return nil, -1, err
	}

	info := sndCtlCardInfo{}
	if err := ioctl(uintptr(ctlFd), sndrvCtlIoctlCardInfo, unsafe.Pointer(&info)); err != nil {
		syscall.Close(ctlFd)
		return nil, -1, err
	}
	return &info, ctlFd, nil
}
