package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/speech"
)

func voicesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List relay and on-device voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog := openLog(g, "stderr", "off")
			defer closeLog()

			fmt.Println("Relay voices:")
			for _, v := range domain.RemoteVoices {
				fmt.Printf("  %s\n", v)
			}

			prog, err := speech.DetectEngine(log)
			if err != nil {
				fmt.Println("No on-device speech program found (tried espeak-ng, espeak, say).")
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			voices, err := speech.NewLocalVoice(prog, log).Voices(ctx)
			if err != nil {
				return fmt.Errorf("list %s voices: %w", prog.Name(), err)
			}

			preferred := speech.PreferredVoice(voices)
			fmt.Printf("On-device voices (%s):\n", prog.Name())
			for _, v := range voices {
				marker := " "
				if v.Name == preferred {
					marker = "*"
				}
				fmt.Printf(" %s %-24s %s\n", marker, v.Name, v.Lang)
			}
			return nil
		},
	}
}
