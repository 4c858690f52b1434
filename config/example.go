package config

import "strings"

var ExampleYaml = `
devices:
  pir.hall:
    name: Hallway PIR
    group: sensors
    caps: [motion]
    location: Hallway
  sonar.hall:
    name: Hallway rangefinder
    group: sensors
    caps: [distance]
    location: Hallway
  buzzer.hall:
    name: Hallway buzzer
    group: alerts
    caps: [buzzer]
    location: Hallway
protocols:
  gpio:
    pir: pir.hall
    sonar: sonar.hall
    buzzer: buzzer.hall
endpoints:
  mqtt:
    broker: tcp://127.0.0.1:1883
  api: http://localhost:8723
monitor:
  pins:
    pir: 17
    trigger: 23
    echo: 24
    buzzer: 18
  threshold: 30
  max_range: 400
  interval: 200ms
  echo_timeout: 30ms
  every: 5s
alarm:
  siren: buzzer.hall
  automata: |
    alarm.hall:
      start: Monitoring
      states:
        Monitoring: {}
        Alerting:
          entering:
          - Siren(true)
          - Alert('Intruder alert in $name')
          - StartTimer('alarm.cooldown', 10)
          leaving:
          - Siren(false)
      transitions:
        Monitoring->Alerting:
        - when: device=='pir.hall' && command=='on'
        - when: device=='sonar.hall' && distance < 30
        Alerting->Monitoring:
        - when: device=='alarm.cooldown' && command=='on'
watchdog:
  devices:
    pir.hall: 12h
    sonar.hall: 1m
`

var ExampleConfig = Must(OpenReader(strings.NewReader(ExampleYaml)))
