// Command neoql runs and inspects Cypher statements against a configured
// graph database.
//
// Usage:
//
//	neoql run 'MATCH (u:User) WHERE u.name = $name RETURN u' --param name=jd
//	neoql check 'MATCH (u:User) RETURN u ORDER BY u.name'
//
// Connection details come from .neoql.yaml (searched upwards from the working
// directory) and may be overridden with flags or NEOQL_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/rlch/neoql/databases/neo4j"
)

func main() {
	app := &cli.Command{
		Name:  "neoql",
		Usage: "Run and inspect Cypher statements",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			checkCommand(),
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger logs to stderr so stdout stays reserved for results.
func newLogger(debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}

	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)

	return config.Build()
}
