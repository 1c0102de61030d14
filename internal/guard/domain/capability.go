package domain

// CapabilityName identifies a single interceptable host capability.
type CapabilityName string

const (
	CapFetch              CapabilityName = "fetch"
	CapXHROpen            CapabilityName = "xhr.open"
	CapWebSocket          CapabilityName = "websocket"
	CapEventSource        CapabilityName = "eventsource"
	CapDial               CapabilityName = "net.dial"
	CapMessageReceive     CapabilityName = "message.receive"
	CapPeerConnection     CapabilityName = "rtc.peer_connection"
	CapDataChannel        CapabilityName = "rtc.data_channel"
	CapIceCandidate       CapabilityName = "rtc.ice_candidate"
	CapSessionDescription CapabilityName = "rtc.session_description"
	CapUserMedia          CapabilityName = "media.get_user_media"
	CapDisplayMedia       CapabilityName = "media.get_display_media"
	CapEnumerateDevices   CapabilityName = "media.enumerate_devices"
	CapExtensionMessage   CapabilityName = "extension.send_message"
)

func (c CapabilityName) String() string { return string(c) }
