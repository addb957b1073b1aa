package main

import "github.com/Mohsinsiddi/assetcli/cmd"

func main() {
	cmd.Execute()
}
