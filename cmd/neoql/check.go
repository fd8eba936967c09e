package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	cyphergrammar "github.com/rlch/neoql/dialects/cypher/grammar"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Parse a statement and print its clauses, parameters and functions",
		ArgsUsage: "<statement>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output as JSON",
			},
		},
		Action: checkStatement,
	}
}

// checkReport is the structure printed by the check command.
type checkReport struct {
	Clauses    []string `json:"clauses"`
	Parameters []string `json:"parameters"`
	Functions  []string `json:"functions"`
}

func inspect(statement string) (*checkReport, error) {
	err := cyphergrammar.Validate(statement)
	if err != nil {
		return nil, err
	}

	stmt, err := cyphergrammar.Parse(statement)
	if err != nil {
		return nil, err
	}

	params, err := cyphergrammar.Parameters(statement)
	if err != nil {
		return nil, err
	}

	return &checkReport{
		Clauses:    stmt.Clauses(),
		Parameters: params,
		Functions:  stmt.Functions(),
	}, nil
}

func checkStatement(_ context.Context, cmd *cli.Command) error {
	statement := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if statement == "" {
		return ErrNoStatement
	}

	report, err := inspect(statement)
	if err != nil {
		return fmt.Errorf("invalid statement: %w", err)
	}

	return newPrinter(os.Stdout, cmd.Bool("json")).Report(report)
}
