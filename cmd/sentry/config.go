package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services"
)

func config(path string, filenames []string) {
	if path != "config" && !strings.HasPrefix(path, "config/") {
		fmt.Println("Path must begin with 'config'")
		return
	}

	// concatenate files together
	data := &bytes.Buffer{}
	for _, filename := range filenames {
		f, err := os.Open(filename)
		if err != nil {
			fmt.Printf("Error opening %s: %s\n", filename, err)
			return
		}
		defer f.Close()
		_, err = io.Copy(data, f)
		if err != nil {
			fmt.Printf("Error reading %s: %s\n", filename, err)
			return
		}

		data.WriteByte('\n')
	}

	// config messages are retained, so services starting later still get them
	fields := pubsub.Fields{
		"config": data.String(),
	}

	ev := pubsub.NewEvent(path, fields)
	ev.SetRetained(true)
	services.SetupBroker("config")
	services.Publisher.Emit(ev)
	ev.Published.Wait()
	fmt.Printf("Updated %s (%d bytes)\n", path, data.Len())
}
