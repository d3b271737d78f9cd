package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/willfong/insurance-assistant/internal/credential"
	"github.com/willfong/insurance-assistant/internal/data"
	"github.com/willfong/insurance-assistant/internal/database"
	"github.com/willfong/insurance-assistant/internal/models"
	"github.com/willfong/insurance-assistant/internal/ui"
)

var (
	seedDSN          string
	seedCreateSchema bool
	seedHashPINs     bool
	seedBatchSize    int
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the embedded reference data into MySQL",
	Long: `Upsert the built-in customers, policies, claims and payments into a
MySQL/MariaDB database so the assistant can run with reference.source = mysql.

Rows are written with INSERT ... ON DUPLICATE KEY UPDATE, so seeding twice
is safe. With --hash-pins the PINs are stored as bcrypt hashes; run the
assistant with credentials.verifier = bcrypt afterwards. The simulator
needs plain PINs.

Examples:
  assistant seed --dsn "user:pass@tcp(localhost:3306)/insurance"
  assistant seed --hash-pins
  assistant seed --create-schema=false`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedDSN, "dsn", "", "database connection string (default database.dsn)")
	seedCmd.Flags().BoolVar(&seedCreateSchema, "create-schema", true, "create missing tables before seeding")
	seedCmd.Flags().BoolVar(&seedHashPINs, "hash-pins", false, "store bcrypt hashes instead of plain PINs")
	seedCmd.Flags().IntVar(&seedBatchSize, "batch-size", 100, "rows per INSERT statement")
}

func runSeed(cmd *cobra.Command, args []string) error {
	u := newUI()

	dbCfg := cfg.Database
	if seedDSN != "" {
		dbCfg.DSN = seedDSN
	}
	if dbCfg.DSN == "" {
		return fmt.Errorf("a DSN is required: pass --dsn or set database.dsn")
	}
	if seedBatchSize < 1 {
		return fmt.Errorf("--batch-size must be >= 1")
	}

	ref, err := data.Load()
	if err != nil {
		return err
	}
	customers := ref.Customers()
	if seedHashPINs {
		if customers, err = hashCustomerPINs(customers); err != nil {
			return err
		}
	}

	fmt.Println(u.Header("Insurance Assistant Seeder"))
	fmt.Println()
	fmt.Println(u.KeyValue("Database", maskDSN(dbCfg.DSN)))
	pinFormat := "plain"
	if seedHashPINs {
		pinFormat = "bcrypt"
	}
	fmt.Println(u.KeyValue("PINs", pinFormat))
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(dbCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	spin := u.NewSpinner("Connecting to database")
	if err := pool.Connect(ctx); err != nil {
		spin.Error("connection failed: " + err.Error())
		return err
	}
	spin.Success("connected!")

	if seedCreateSchema {
		spinTables := u.NewSpinner("Creating tables")
		if err := createTables(ctx, pool); err != nil {
			spinTables.Error("failed: " + err.Error())
			return err
		}
		spinTables.Success("tables ready")
	}

	q := database.NewQueries(pool)
	start := time.Now()
	steps := []struct {
		table string
		rows  int
		write func(lo, hi int) error
	}{
		{"customers", len(customers), func(lo, hi int) error { return q.UpsertCustomers(ctx, customers[lo:hi]) }},
		{"policies", len(ref.Policies()), func(lo, hi int) error { return q.UpsertPolicies(ctx, ref.Policies()[lo:hi]) }},
		{"claims", len(ref.Claims()), func(lo, hi int) error { return q.UpsertClaims(ctx, ref.Claims()[lo:hi]) }},
		{"payments", len(ref.Payments()), func(lo, hi int) error { return q.UpsertPayments(ctx, ref.Payments()[lo:hi]) }},
	}

	items := make([]ui.KV, 0, len(steps)+1)
	for _, step := range steps {
		bar := u.NewProgressBar(step.table, int64(step.rows))
		if err := seedInBatches(step.rows, seedBatchSize, step.write, bar.Add); err != nil {
			bar.Fail(err)
			return err
		}
		bar.Complete()
		items = append(items, ui.KV{Key: step.table, Value: fmt.Sprintf("%d rows", step.rows)})
	}

	items = append(items, ui.KV{Key: "Duration", Value: time.Since(start).Round(time.Millisecond).String()})
	fmt.Println(u.SummaryBox("Seed Summary", items))
	return nil
}

// seedInBatches calls write for consecutive [lo, hi) windows of at most size rows
func seedInBatches(total, size int, write func(lo, hi int) error, progress func(int64)) error {
	for lo := 0; lo < total; lo += size {
		hi := min(lo+size, total)
		if err := write(lo, hi); err != nil {
			return err
		}
		progress(int64(hi - lo))
	}
	return nil
}

// hashCustomerPINs returns a copy of customers with bcrypt-hashed PINs
func hashCustomerPINs(customers []models.Customer) ([]models.Customer, error) {
	out := make([]models.Customer, len(customers))
	for i, c := range customers {
		hash, err := credential.HashPIN(c.PIN)
		if err != nil {
			return nil, fmt.Errorf("customer %s: %w", c.ID, err)
		}
		c.PIN = hash
		out[i] = c
	}
	return out, nil
}

// createTables runs every statement of the full schema
func createTables(ctx context.Context, pool *database.Pool) error {
	content, err := schemaSQL("full")
	if err != nil {
		return err
	}
	for _, stmt := range splitSQLStatements(content) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := pool.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// splitSQLStatements splits a script on lines ending in ';', dropping comments
func splitSQLStatements(content string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	return statements
}

// maskDSN hides the password between ':' and '@'
func maskDSN(dsn string) string {
	if colonIdx := strings.Index(dsn, ":"); colonIdx > 0 {
		rest := dsn[colonIdx:]
		if atIdx := strings.Index(rest, "@"); atIdx > 0 {
			return dsn[:colonIdx+1] + "***" + rest[atIdx:]
		}
	}
	return dsn
}
