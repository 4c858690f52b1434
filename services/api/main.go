// Service providing the HTTP REST API, to check on the monitor and control
// devices from a browser or script.
//
// The endpoints supported are:
//
// http://localhost:8723/query/{service}?q=... - query a service, eg http://localhost:8723/query/monitor/status
//
// http://localhost:8723/status - current monitor status as json
//
// http://localhost:8723/devices - list of devices with their last event
//
// http://localhost:8723/devices/{device} - single device
//
// http://localhost:8723/devices/control?id=device&control=1 - switch a device on or off
//
// http://localhost:8723/events/feed?topics=... - continuous live stream of events (line delimited)
//
// http://localhost:8723/config?path=config - GET configuration or POST to update configuration
//
// http://localhost:8723/logs - list log files, /logs/{file} to fetch one
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Ganesh-Jaishi/Samsung-IOT/config"
	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services"
)

// Service api
type Service struct {
}

// ID of the service
func (self *Service) ID() string {
	return "api"
}

func errorResponse(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), 500)
}

func apiIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "text/html")
	fmt.Fprintf(w, "<html>Sentry is listening</html>")
}

func jsonResponse(w http.ResponseWriter, obj interface{}) {
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	err := enc.Encode(obj)
	if err != nil {
		errorResponse(w, err)
	}
}

func query(endpoint string, q string, w http.ResponseWriter) {
	w.Header().Add("Content-Type", "application/json; charset=utf-8")

	ch := services.QueryChannel(endpoint+" "+q, 100*time.Millisecond)

	for ev := range ch {
		fmt.Fprintf(w, ev.String()+"\r\n")
		w.(http.Flusher).Flush()
	}
}

func apiQuery(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Path[len("/query/"):]
	q := r.URL.Query().Get("q")
	query(endpoint, q, w)
}

func apiStatus(w http.ResponseWriter, r *http.Request) {
	ch := services.QueryChannel("monitor/status", 100*time.Millisecond)
	for ev := range ch {
		if ret, ok := ev.Fields["json"]; ok {
			jsonResponse(w, ret)
			return
		}
	}
	errorResponse(w, errors.New("monitor not responding"))
}

type deviceAndState struct {
	config.DeviceConf
	State interface{} `json:"state"`
}

func getDevicesState() map[string]interface{} {
	// last event per device, from the store
	ret := make(map[string]interface{})
	nodes, _ := services.Stor.GetRecursive("sentry/state/devices")
	for _, node := range nodes {
		ev := pubsub.Parse(node.Value, "")
		if ev == nil {
			continue
		}
		name := node.Key[strings.LastIndex(node.Key, "/")+1:]
		ret[name] = ev.Map()
	}
	return ret
}

func apiDevices(w http.ResponseWriter, r *http.Request) {
	ret := make(map[string]deviceAndState)
	state := getDevicesState()

	for name, dev := range services.Config.Devices {
		ret[name] = deviceAndState{dev, state[name]}
	}

	jsonResponse(w, ret)
}

func apiDevicesSingle(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	name := params["device"]
	dev, ok := services.Config.Devices[name]
	if !ok {
		http.Error(w, "not found: "+name, 404)
		return
	}
	state := getDevicesState()
	jsonResponse(w, deviceAndState{dev, state[name]})
}

func apiDevicesControl(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	device := q.Get("id")
	var command string
	if q.Get("control") == "1" {
		command = "on"
	} else {
		command = "off"
	}
	// send command
	ev := pubsub.NewCommand(device, command)
	services.Publisher.Emit(ev)
	jsonResponse(w, true)
}

func apiEventsFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topics := q.Get("topics")
	w.Header().Add("Content-Type", "application/json; boundary=NL")

	var subs []pubsub.Topic
	if topics != "" {
		for _, topic := range strings.Split(topics, ",") {
			subs = append(subs, pubsub.Exact(topic))
		}
	} else {
		subs = append(subs, pubsub.All())
	}
	ch := services.Subscriber.Subscribe(subs...)
	defer services.Subscriber.Close(ch)

	for ev := range ch {
		data := ev.Map()
		device := services.Config.LookupDeviceName(ev)
		if device != "" {
			data["device"] = device
		}
		encoder := json.NewEncoder(w)
		if err := encoder.Encode(data); err != nil {
			break
		}
		w.Write([]byte("\r\n")) // separator
		w.(http.Flusher).Flush()
	}
}

func apiConfig(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		errorResponse(w, errors.New("path parameter required"))
		return
	}

	value, err := services.Stor.Get(path)
	if err != nil && r.Method == "GET" {
		errorResponse(w, err)
		return
	}

	if r.Method == "GET" {
		w.Header().Add("Content-Type", "application/yaml; charset=utf-8")
		w.Write([]byte(value))
	} else if r.Method == "POST" {
		data, err := ioutil.ReadAll(r.Body)
		if err != nil {
			errorResponse(w, err)
			return
		}

		sout := string(data)
		if sout != value {
			services.Stor.Set(path, sout)
			// notify running services
			fields := pubsub.Fields{
				"path": path,
			}
			ev := pubsub.NewEvent("config", fields)
			services.Publisher.Emit(ev)
			log.Printf("%s changed, emitted config event", path)
		}
	}
}

func apiLogs(w http.ResponseWriter, r *http.Request) {
	logs := []string{}
	infos, err := ioutil.ReadDir(config.LogPath(""))
	if err != nil {
		errorResponse(w, err)
		return
	}

	for _, info := range infos {
		logs = append(logs, info.Name())
	}
	jsonResponse(w, logs)
}

func apiLogsLog(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	filename := config.LogPath(params["file"])
	file, err := os.Open(filename)
	if err != nil {
		errorResponse(w, err)
		return
	}
	defer file.Close()

	w.Header().Add("Content-Type", "text/plain; charset=utf-8")
	io.Copy(w, file)
}

func router() *mux.Router {
	router := mux.NewRouter()
	router.Path("/").HandlerFunc(apiIndex)
	router.PathPrefix("/query/").HandlerFunc(apiQuery)
	router.Path("/status").HandlerFunc(apiStatus)
	router.Path("/devices").HandlerFunc(apiDevices)
	router.Path("/devices/control").HandlerFunc(apiDevicesControl)
	router.Path("/devices/{device}").HandlerFunc(apiDevicesSingle)
	router.Path("/events/feed").HandlerFunc(apiEventsFeed)
	router.Path("/config").HandlerFunc(apiConfig)
	router.Path("/logs").HandlerFunc(apiLogs)
	router.Path("/logs/{file}").HandlerFunc(apiLogsLog)
	return router
}

type loggingHandler struct {
	Handler http.Handler
}

func (self loggingHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Printf("%s %s\n", req.Method, req.RequestURI)
	self.Handler.ServeHTTP(w, req)
}

func httpEndpoint() {
	// not using handlers.LoggingHandler - it hides ResponseWriter.Flush,
	// which the feed endpoints need
	var handler http.Handler = router()
	handler = loggingHandler{Handler: handler}
	http.Handle("/", handler)
	addr := ":8723"
	log.Println("Listening on " + addr)
	err := http.ListenAndServe(addr, nil)
	if err != nil {
		log.Fatalln(err)
	}
}

func recordEvents() {
	topics := services.Subscriber.Subscribe(
		pubsub.Exact("motion"),
		pubsub.Exact("distance"),
		pubsub.Exact("state"),
		pubsub.Exact("alarm"),
		pubsub.Prefix("command"))
	for ev := range topics {
		// record the last event per device to the store
		device := services.Config.LookupDeviceName(ev)
		if device != "" {
			key := "sentry/state/devices/" + device
			services.Stor.Set(key, ev.String())
		}
	}
}

// Run the service
func (self *Service) Run() error {
	go recordEvents()
	httpEndpoint()
	return nil
}
