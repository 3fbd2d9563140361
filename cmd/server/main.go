package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nickyhof/CommitKV"
	"github.com/nickyhof/CommitKV/config"
	"github.com/nickyhof/CommitKV/op"
	"github.com/nickyhof/CommitKV/ps"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "commitkv",
	Short: "CommitKV server",
	Long: `CommitKV is a key-value store whose every write is a git commit.

The server speaks a line protocol over TCP: one query per line in,
one JSON response per line out.`,
	SilenceUsage: true,
}

var serveFlags struct {
	host     string
	port     int
	dataPath string
	tlsCert  string
	tlsKey   string
	auth     bool
	jwt      string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the TCP server",
	RunE:  runServe,
}

var restoreFlags struct {
	force    bool
	token    string
	sshKey   string
	user     string
	password string
}

var restoreCmd = &cobra.Command{
	Use:   "restore <source> <database>",
	Short: "Restore a database from a git remote, repository or archive",
	Long: `Restore materializes a database from one of:

  - a .tar.gz or .tgz archive (local path, file://, http(s):// or s3://)
  - a local git repository
  - a git remote (http(s)://, ssh:// or git@host:path)`,
	Args: cobra.ExactArgs(2),
	RunE: runRestore,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <database> <destination>",
	Short: "Write a database to a .tar.gz archive (local path or s3://)",
	Args:  cobra.ExactArgs(2),
	RunE:  runSnapshot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("CommitKV Server v%s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.toml, .yaml or .yml)")

	f := serveCmd.Flags()
	f.StringVar(&serveFlags.host, "host", "", "address to bind")
	f.IntVar(&serveFlags.port, "port", 0, "TCP port to listen on")
	f.StringVar(&serveFlags.dataPath, "data", "", "data directory (memory if empty)")
	f.StringVar(&serveFlags.tlsCert, "tls-cert", "", "TLS certificate file")
	f.StringVar(&serveFlags.tlsKey, "tls-key", "", "TLS private key file")
	f.BoolVar(&serveFlags.auth, "auth", false, "require AUTH before queries")
	f.StringVar(&serveFlags.jwt, "jwt-secret", "", "HMAC secret for JWT authentication")

	r := restoreCmd.Flags()
	r.BoolVar(&restoreFlags.force, "force", false, "replace an existing database")
	r.StringVar(&restoreFlags.token, "token", "", "access token for https remotes")
	r.StringVar(&restoreFlags.sshKey, "ssh-key", "", "private key for ssh remotes")
	r.StringVar(&restoreFlags.user, "user", "", "username for https remotes")
	r.StringVar(&restoreFlags.password, "password", "", "password for https remotes, or the ssh key passphrase")

	rootCmd.AddCommand(serveCmd, restoreCmd, snapshotCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

// applyServeFlags lets explicitly set flags override the config file.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Net.Host = serveFlags.host
	}
	if flags.Changed("port") {
		cfg.Net.Port = serveFlags.port
	}
	if flags.Changed("data") {
		cfg.Database.Path = serveFlags.dataPath
	}
	if flags.Changed("tls-cert") {
		cfg.Net.TLSCert = serveFlags.tlsCert
	}
	if flags.Changed("tls-key") {
		cfg.Net.TLSKey = serveFlags.tlsKey
	}
	if flags.Changed("auth") {
		cfg.Auth.Enabled = serveFlags.auth
	}
	if flags.Changed("jwt-secret") {
		cfg.Auth.JWTSecret = serveFlags.jwt
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	instance, err := CommitKV.Open(cfg)
	if err != nil {
		return err
	}

	if cfg.Database.Path == "" {
		log.Println("Using memory persistence")
	} else {
		log.Printf("Using file persistence: %s", cfg.Database.Path)
	}

	created, err := instance.Shared.Bootstrap()
	if err != nil {
		return err
	}
	if created {
		log.Printf("Created admin user %s", cfg.Auth.AdminUser)
	}

	server := NewServer(instance)
	if cfg.TLSEnabled() {
		err = server.StartTLS(cfg.Address(), cfg.Net.TLSCert, cfg.Net.TLSKey)
	} else {
		err = server.Start(cfg.Address())
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Printf("║   CommitKV Server v%-18s  ║\n", Version)
	fmt.Println("║   Git-backed Key-Value Store          ║")
	fmt.Println("╚═══════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Listening on %s\n", server.Addr())
	if cfg.Auth.Enabled {
		fmt.Println("Authentication required: AUTH BASIC <user> <password> | AUTH JWT <token>")
	}
	fmt.Println("Send queries (one per line), 'quit' to disconnect")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	server.Stop()
	log.Println("Server stopped")
	return nil
}

func restoreAuth() *ps.CloneCredentials {
	creds := &ps.CloneCredentials{
		Token:    restoreFlags.token,
		Username: restoreFlags.user,
		KeyFile:  restoreFlags.sshKey,
	}
	if restoreFlags.sshKey != "" {
		creds.Passphrase = restoreFlags.password
	} else {
		creds.Password = restoreFlags.password
	}
	return creds
}

func s3Config(cfg *config.Config) *ps.S3Config {
	return &ps.S3Config{
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
	}
}

func runRestore(cmd *cobra.Command, args []string) error {
	source, database := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Path == "" {
		return errors.New("restore needs a data directory: set database.path in the config file")
	}
	if err := op.ValidateName(database); err != nil {
		return err
	}

	target := filepath.Join(cfg.Database.Path, database)
	p, err := ps.Restore(cmd.Context(), source, target, ps.RestoreOptions{
		Auth:  restoreAuth(),
		S3:    s3Config(cfg),
		Force: restoreFlags.force,
	})
	if err != nil {
		return err
	}

	txn := p.LatestTransaction()
	fmt.Printf("Restored %s at %s (%s)\n", database, txn.Id, txn.Message)
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	database, destination := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	instance, err := CommitKV.Open(cfg)
	if err != nil {
		return err
	}

	p, err := instance.Shared.Databases.Get(database)
	if err != nil {
		return err
	}

	w, err := ps.OpenWriter(cmd.Context(), destination, s3Config(cfg))
	if err != nil {
		return err
	}
	if err := p.ExportArchive(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	fmt.Printf("Wrote %s to %s\n", database, destination)
	return nil
}
