// Command azkar-offscreen is the audio playback process. The daemon
// spawns it on demand; it claims a session-bus name, plays recitation
// URLs on request, and exits when told to quit.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/MahMoudMostaAfa/azkar/internal/offscreen"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	debug := flag.Bool("d", false, "enable debug logging")
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	player, err := offscreen.NewPlayer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		os.Exit(1)
	}

	svc, err := offscreen.NewService(player)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	svc.Wait()
}
