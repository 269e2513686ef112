package cmd

import (
	"fmt"
	"os"

	"github.com/smazurov/audionode/pkg/linuxaudio/alsa"
	"github.com/spf13/cobra"
)

// CreateCardsCmd creates the cards command.
func CreateCardsCmd() *cobra.Command {
	var showDevices bool

	cmd := &cobra.Command{
		Use:   "cards",
		Short: "List ALSA sound cards",
		Long:  `Enumerates sound cards through the ALSA control interface and reports which are USB-attached.`,
		Run: func(_ *cobra.Command, _ []string) {
			cards, err := alsa.ListCards()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to list sound cards: %v\n", err)
				os.Exit(1)
			}

			if len(cards) == 0 {
				fmt.Println("No sound cards found")
				return
			}

			for _, card := range cards {
				usb := ""
				if card.IsUSB {
					usb = " [USB]"
				}
				fmt.Printf("card %d: %s (%s), driver %s%s\n", card.Number, card.Name, card.ID, card.Driver, usb)
			}

			if !showDevices {
				return
			}

			devices, err := alsa.ListPlaybackDevices()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to list playback devices: %v\n", err)
				os.Exit(1)
			}
			for _, dev := range devices {
				fmt.Printf("  %s: %s, device %d: %s\n", dev.ALSADevice, dev.CardName, dev.DeviceNumber, dev.DeviceName)
			}
		},
	}

	cmd.Flags().BoolVarP(&showDevices, "devices", "d", false, "Also list playback devices per card")

	return cmd
}
