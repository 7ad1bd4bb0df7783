package cli

import (
	"fmt"

	"github.com/dmitrijs2005/certvault/internal/services"
	"github.com/spf13/cobra"
)

func (a *App) processDeviceCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "process-device",
		Short: "Validate a device cleanup report and store it",
		Long: `Validate a device cleanup report and append it to the record stores.

The file holds either the device object itself or a combined document with a
"device" section, as accepted by create.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readObject(input)
			if err != nil {
				return err
			}
			info := services.DeviceReport(raw)

			return a.withStore(cmd, func(store recordStore) error {
				entry, err := services.NewDeviceLog(store, a.logger, nil).Record(cmd.Context(), info)
				if err != nil {
					return err
				}

				a.successf("✓ Device data processed successfully")
				a.detail(2, "Operating System", entry.OS)
				a.detail(2, "Device ID", entry.DeviceID)
				a.detail(2, "Operation Type", entry.ActionType)
				a.detail(2, "Space Recovered", entry.SizeRemoved)
				a.detail(2, "Time & Date", entry.Timestamp)
				a.detail(2, "Files Deleted", fmt.Sprintf("%d file(s)", entry.FilesDeletedCount))
				for i, path := range entry.FilesDeleted {
					a.printf("    %d. %s\n", i+1, path)
				}
				a.successf("✓ Device cleanup record stored")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "JSON file with device data (flat or with a 'device' key)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
