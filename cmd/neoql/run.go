package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rlch/neoql"
	"github.com/rlch/neoql/connection"
	cyphergrammar "github.com/rlch/neoql/dialects/cypher/grammar"
)

// Run command errors.
var (
	ErrNoStatement  = errors.New("no statement given")
	ErrInvalidParam = errors.New("invalid parameter, expected key=value")
)

var writeClauses = []string{"CREATE", "MERGE", "DELETE", "DETACH DELETE", "SET", "REMOVE"}

func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "uri",
			Usage:   "database connection URI",
			Sources: cli.EnvVars("NEOQL_URI"),
		},
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "database username",
			Sources: cli.EnvVars("NEOQL_USER"),
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "database password",
			Sources: cli.EnvVars("NEOQL_PASS"),
		},
		&cli.StringFlag{
			Name:    "database",
			Aliases: []string{"d"},
			Usage:   "database name (overrides config)",
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a statement and print its records",
		ArgsUsage: "<statement>",
		Flags: append(connectionFlags(),
			&cli.StringSliceFlag{
				Name:    "param",
				Aliases: []string{"P"},
				Usage:   "statement parameter as key=value (value parsed as JSON when possible)",
			},
			&cli.BoolFlag{
				Name:  "pretend",
				Usage: "log the statement without executing it",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output records as JSON",
			},
			&cli.BoolFlag{
				Name:  "validate",
				Usage: "reject statements calling unknown functions",
			},
		),
		Action: runStatement,
	}
}

func runStatement(ctx context.Context, cmd *cli.Command) error {
	statement := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if statement == "" {
		return ErrNoStatement
	}

	params, err := parseParams(cmd.StringSlice("param"))
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = logger.Sync() }()

	conn := connection.New(cfg,
		connection.WithLogger(logger),
		connection.WithValidation(cmd.Bool("validate")),
	)
	defer func() { _ = conn.Disconnect(ctx) }()

	out := newPrinter(os.Stdout, cmd.Bool("json"))

	if cmd.Bool("pretend") {
		logged, err := conn.Pretend(func(c *connection.Connection) error {
			_, err := execute(ctx, c, statement, params)

			return err
		})
		if err != nil {
			return err
		}

		return out.Queries(logged)
	}

	result, err := execute(ctx, conn, statement, params)
	if err != nil {
		return err
	}

	return out.Result(result)
}

// execute routes statements with write clauses through a transaction and
// everything else through the read path.
func execute(ctx context.Context, conn *connection.Connection, statement string, params map[string]any) (*neoql.Result, error) {
	if isWrite(statement) {
		return conn.StatementResult(ctx, statement, params)
	}

	return conn.Select(ctx, statement, params)
}

func isWrite(statement string) bool {
	stmt, err := cyphergrammar.Parse(statement)
	if err != nil {
		// Unparseable statements take the write path.
		return true
	}

	for _, clause := range stmt.Clauses() {
		if slices.Contains(writeClauses, clause) {
			return true
		}
	}

	return false
}

func parseParams(raw []string) (map[string]any, error) {
	params := make(map[string]any, len(raw))

	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidParam, kv)
		}

		params[key] = decodeParam(value)
	}

	return params, nil
}

// decodeParam parses value as JSON, keeping integers as int64. Anything that
// is not valid JSON is passed through as a string.
func decodeParam(value string) any {
	dec := json.NewDecoder(strings.NewReader(value))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil || dec.More() {
		return value
	}

	return normalizeNumbers(decoded)
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}

		f, _ := t.Float64()

		return f
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
	}

	return v
}

// resolveConfig loads .neoql.yaml from the working directory upwards and
// applies flag overrides. A missing config file is not an error.
func resolveConfig(cmd *cli.Command) (*neoql.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := neoql.LoadConfig(dir)
	if errors.Is(err, neoql.ErrConfigNotFound) {
		cfg, err = neoql.DefaultConfig(), nil
	}

	if err != nil {
		return nil, err
	}

	if uri := cmd.String("uri"); uri != "" {
		cfg.URIOverride = uri
	}

	if username := cmd.String("username"); username != "" {
		cfg.Username = username
	}

	if password := cmd.String("password"); password != "" {
		cfg.Password = password
	}

	if database := cmd.String("database"); database != "" {
		cfg.Database = database
	}

	return cfg.WithDefaults(), nil
}
