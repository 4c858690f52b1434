package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/Ganesh-Jaishi/Samsung-IOT/services"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services/alarm"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services/api"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services/display"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services/monitor"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services/watchdog"
)

func registerServices() {
	// register available services
	services.Register(&alarm.Service{})
	services.Register(&api.Service{})
	services.Register(&display.Service{})
	services.Register(&monitor.Service{})
	services.Register(&watchdog.Service{})
}

func usage() {
	fmt.Println("Usage: sentry COMMAND [SERVICE]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("   config  path filename...  Update config")
	fmt.Println("   logs                      Tail logs")
	fmt.Println("   run     [service...]      Run services")
	fmt.Println("   status  [service]         Get service status")
	fmt.Println("   switch  device on|off     Control a device")
	fmt.Println("   query   ...               Query services")
	fmt.Println()
}

var emptyParams = url.Values{}

func main() {
	log.SetOutput(os.Stdout)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	ps := []string{}
	if flag.NArg() > 1 {
		ps = flag.Args()[1:]
	}
	// ignore anything after '--'
	for i := range ps {
		if ps[i] == "--" {
			ps = ps[0:i]
			break
		}
	}

	services.SetupLogging()

	command := flag.Args()[0]
	switch command {
	default:
		usage()
	case "config":
		if len(ps) < 2 {
			usage()
			return
		}
		config(ps[0], ps[1:])
	case "status":
		if len(ps) == 0 {
			// all services
			query("status", []string{}, emptyParams)
		} else {
			// single service
			query(ps[0]+"/status", []string{}, url.Values{"responses": {"1"}})
		}
	case "run":
		service(ps)
	case "switch":
		commandSwitch(ps)
	case "query":
		if len(ps) == 0 {
			usage()
			return
		}
		query(ps[0], ps[1:], url.Values{"timeout": {"5000"}, "responses": {"1"}})
	case "logs":
		stream("logs", emptyParams)
	}
}

func commandSwitch(ps []string) {
	if len(ps) < 2 {
		usage()
		return
	}

	control := "0"
	if ps[1] == "on" {
		control = "1"
	}
	params := url.Values{
		"id":      []string{ps[0]},
		"control": []string{control},
	}
	resp, err := request("devices/control", params)
	if err != nil {
		fmtFatalf("error: %s\n", err)
	}
	defer resp.Body.Close()
	io.Copy(os.Stdout, resp.Body)
}

// Run builtin services
func service(ss []string) {
	if len(ss) == 0 {
		usage()
		return
	}
	services.Setup(strings.Join(ss, "-"))
	registerServices()
	services.Launch(ss)
}
