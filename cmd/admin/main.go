// Command admin creates the first admin account. It shares the server's
// configuration sources, so -d, ONBOARDING_DATABASE_DSN or a -c config file
// select the database. The whole server configuration is validated, token
// secrets and key lists included, even though no token is issued here: a
// configuration the server would refuse is refused by admin as well.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"

	"github.com/dmitrijs2005/onboarding/internal/admin"
	"github.com/dmitrijs2005/onboarding/internal/flagx"
	"github.com/dmitrijs2005/onboarding/internal/server"
	"github.com/dmitrijs2005/onboarding/internal/server/config"
)

func main() {

	var name, email string

	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	fs.StringVar(&name, "name", "", "Admin display name")
	fs.StringVar(&email, "email", "", "Admin email")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-name", "-email"}))

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer app.Close()

	if err := app.Prepare(ctx); err != nil {
		log.Printf("%v", err)
		return
	}

	if _, err := admin.Bootstrap(ctx, app.Users(), bufio.NewReader(os.Stdin), os.Stdout, name, email); err != nil {
		log.Printf("%v", err)
	}

}
