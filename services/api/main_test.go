package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/Ganesh-Jaishi/Samsung-IOT/config"
	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub/dummy"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services"
)

func Example_interfaces() {
	var _ services.Service = (*Service)(nil)
	// Output:
}

func ExampleIndex() {
	rec := httptest.NewRecorder()
	r := http.Request{}
	apiIndex(rec, &r)
	fmt.Println(rec.Body)
	// Output:
	// <html>Sentry is listening</html>
}

func Example_devicesSingle() {
	services.Stor = services.NewMockStore()
	services.Config = config.ExampleConfig
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/devices/pir.hall", nil)
	r = mux.SetURLVars(r, map[string]string{"device": "pir.hall"})
	apiDevicesSingle(rec, r)
	fmt.Println(rec.Body)
	// Output:
	// {"id":"pir.hall","name":"Hallway PIR","type":"motion","group":"sensors","location":"Hallway","aliases":null,"caps":["motion"],"state":null}
}

func Example_devicesSingleNotFound() {
	services.Config = config.ExampleConfig
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/devices/abc", nil)
	r = mux.SetURLVars(r, map[string]string{"device": "abc"})
	apiDevicesSingle(rec, r)
	fmt.Println(rec.Body)
	// Output:
	// not found: abc
}

func Example_devicesSingleState() {
	services.Stor = services.NewMockStore()
	services.Config = config.ExampleConfig
	ev := pubsub.NewEvent("motion", pubsub.Fields{"device": "pir.hall", "command": "on", "timestamp": "2017-09-26 19:24:22.069"})
	services.Stor.Set("sentry/state/devices/pir.hall", ev.String())
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/devices/pir.hall", nil)
	r = mux.SetURLVars(r, map[string]string{"device": "pir.hall"})
	apiDevicesSingle(rec, r)
	fmt.Println(rec.Body)
	// Output:
	// {"id":"pir.hall","name":"Hallway PIR","type":"motion","group":"sensors","location":"Hallway","aliases":null,"caps":["motion"],"state":{"command":"on","device":"pir.hall","timestamp":"2017-09-26 19:24:22.069","topic":"motion"}}
}

func Example_devicesControl() {
	services.Config = config.ExampleConfig
	em := dummy.Publisher{}
	services.Publisher = &em
	rec := httptest.NewRecorder()
	uri, _ := url.Parse("http://example.com/devices/control?id=buzzer.hall&control=1")
	r := http.Request{
		URL: uri,
	}
	apiDevicesControl(rec, &r)
	fmt.Println(rec.Body)
	fmt.Println(em.Events[0].Topic, em.Events[0].Command())
	// Output:
	// true
	// command/buzzer.hall on
}
