package runner

import "github.com/projectdiscovery/gologger"

const version = "v0.1.0"

var banner = `
   __                                   __
  / /___ _____  ______________  __  __/ /_
 / / __ ` + "`" + `/ __ \/ ___/ ___/ __ \/ / / / __/
/ / /_/ / / / (__  ) /__/ /_/ / /_/ / /_
\_\__,_/_/ /_/____/\___/\____/\__,_/\__/  ` + version + `
`

// showBanner is used to show the banner to the user
func showBanner() {
	gologger.Print().Msgf("%s\n", banner)
}
