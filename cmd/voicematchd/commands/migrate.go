package commands

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/shopmindai/voicematch/internal/config"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|version]",
	Short: "Apply golang-migrate SQL migrations against VOICEMATCH_DATABASE_URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory of golang-migrate SQL files")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+migrationsDir, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migrate: open: %w", err)
	}
	defer m.Close()

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil {
			return verr
		}
		fmt.Printf("version=%d dirty=%v\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("migrate: unknown subcommand %q, want up|down|version", args[0])
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("migrate: no change")
		return nil
	}
	return err
}
