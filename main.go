package main

import "github.com/jabiru-analytics/jabiru/cmd"

func main() {
	cmd.Execute()
}
