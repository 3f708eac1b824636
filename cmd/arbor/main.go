// Command arbor renders and previews arbor scene files.
//
//	arbor render scene.json -o scene.png
//	arbor view scene.yaml --watch
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Errorf("arbor: %v", err)
		os.Exit(1)
	}
}
