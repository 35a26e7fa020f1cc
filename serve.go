package main

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"lean_canvas_coach/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web form",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		srv, err := server.New(a.newSession, server.Options{
			Timeout:    a.cfg.LLM.Timeout,
			SessionTTL: a.cfg.Workflow.SessionTTL,
			Verbose:    verbose,
			Logger:     log.Default(),
		})
		if err != nil {
			return err
		}
		listen := a.cfg.ServerAddr
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			listen = addr
		}
		if listen == "" {
			listen = ":8080"
		}
		log.Printf("Starting web server on %s", listen)
		return http.ListenAndServe(listen, srv.Routes())
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "http listen address (overrides server_addr)")
	rootCmd.AddCommand(serveCmd)
}
