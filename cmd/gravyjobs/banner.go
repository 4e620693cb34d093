package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pterm/pterm"
)

const bannerText = `
 ██████╗ ██████╗  █████╗ ██╗   ██╗██╗   ██╗         ██╗ ██████╗ ██████╗ ███████╗
██╔════╝ ██╔══██╗██╔══██╗██║   ██║╚██╗ ██╔╝         ██║██╔═══██╗██╔══██╗██╔════╝
██║  ███╗██████╔╝███████║██║   ██║ ╚████╔╝          ██║██║   ██║██████╔╝███████╗
██║   ██║██╔══██╗██╔══██║╚██╗ ██╔╝  ╚██╔╝      ██   ██║██║   ██║██╔══██╗╚════██║
╚██████╔╝██║  ██║██║  ██║ ╚████╔╝    ██║       ╚█████╔╝╚██████╔╝██████╔╝███████║
 ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝  ╚═══╝     ╚═╝        ╚════╝  ╚═════╝ ╚═════╝ ╚══════╝
`

// printBanner writes the gradient banner unless silenced.
func printBanner(silence bool) {
	if silence {
		return
	}

	start := pterm.NewRGB(uint8(rand.Intn(256)), uint8(rand.Intn(256)), uint8(rand.Intn(256)))
	end := pterm.NewRGB(uint8(rand.Intn(256)), uint8(rand.Intn(256)), uint8(rand.Intn(256)))

	chars := strings.Split(bannerText, "")
	var colored strings.Builder
	for i, ch := range chars {
		colored.WriteString(start.Fade(0, float32(len(chars)), float32(i), end).Sprint(ch))
	}
	fmt.Println(colored.String())
}
