package constants

import "time"

// temperature bounds (kelvin)
const MinTemperature = 1000
const NeutralTemperature = 6500

const DefaultDayTemperature = NeutralTemperature
const DefaultNightTemperature = 4500

// the largest change applied to an output in one step
const TemperatureStep = 50

const QuickAdjustDuration = 2 * time.Second
const QuickAdjustDurationPreview = QuickAdjustDuration / 8
const MinTaskInterval = time.Millisecond

const PreviewDuration = 15 * time.Second

// used when the sun times can't be calculated or the fixed timings are invalid
const FallbackTransitionDuration = 30 * time.Minute
const DefaultMorningBegin = 6 * time.Hour
const DefaultEveningBegin = 18 * time.Hour
const DefaultTransitionMinutes = 30

// location updates smaller than this are ignored
const LocationToleranceLatitude = 2.0
const LocationToleranceLongitude = 1.0

// windows further apart than this mean the schedule needs recalculating
const MaxTransitionSpacing = 23 * time.Hour

// hue bridge events
const EventBatchTypeUpdate = "update"
const EventBatchTypeAdd = "add"
const EventTypeLight = "light"
const EventTypeZigbeeConnectivity = "zigbee_connectivity"
const EventStatusConnected = "connected"

// the name of the inhibitor held by Toggle
const ManualInhibitor = "manual"

// device commits are spaced by at least this much per output
const CommitThrottle = 100 * time.Millisecond
