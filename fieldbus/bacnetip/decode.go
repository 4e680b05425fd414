package bacnetip

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PDU type nibbles for the responses the gateway handles.
const (
	pduSimpleAck  = 0x20
	pduComplexAck = 0x30
	pduError      = 0x50
	pduReject     = 0x60
	pduAbort      = 0x70
)

// response is the decoded result of one confirmed request.
type response struct {
	invokeID byte
	value    float64
	hasValue bool
}

// errDeviceError covers Error, Reject and Abort PDUs returned by a device.
type errDeviceError struct {
	pdu   string
	class uint32
	code  uint32
}

func (e *errDeviceError) Error() string {
	return fmt.Sprintf("device returned %s (class %d, code %d)", e.pdu, e.class, e.code)
}

// stripBVLC validates the BVLC and NPDU headers and returns the APDU.
func stripBVLC(frame []byte) ([]byte, error) {
	if len(frame) < 6 {
		return nil, fmt.Errorf("frame too short: %d bytes", len(frame))
	}
	if frame[0] != bvlcType {
		return nil, fmt.Errorf("not a BACnet/IP frame: 0x%02X", frame[0])
	}
	if frame[1] != bvlcOriginalUnicast {
		return nil, fmt.Errorf("unexpected BVLC function 0x%02X", frame[1])
	}
	length := int(binary.BigEndian.Uint16(frame[2:4]))
	if length > len(frame) {
		return nil, fmt.Errorf("truncated frame: header says %d, have %d", length, len(frame))
	}
	if frame[4] != npduVersion {
		return nil, fmt.Errorf("unsupported NPDU version 0x%02X", frame[4])
	}
	// NPDU control with routing bits set would carry addressing the
	// gateway does not handle; local unicast replies have none.
	if frame[5]&0x28 != 0 {
		return nil, fmt.Errorf("routed NPDU not supported (control 0x%02X)", frame[5])
	}
	return frame[6:length], nil
}

// decodeResponse parses the APDU of a reply to a ReadProperty or
// WriteProperty request. A SimpleAck yields a response without a value;
// a ComplexAck yields the decoded presentValue.
func decodeResponse(frame []byte) (*response, error) {
	apdu, err := stripBVLC(frame)
	if err != nil {
		return nil, err
	}
	if len(apdu) < 2 {
		return nil, fmt.Errorf("APDU too short: %d bytes", len(apdu))
	}

	switch apdu[0] & 0xF0 {
	case pduSimpleAck:
		return &response{invokeID: apdu[1]}, nil

	case pduComplexAck:
		if len(apdu) < 3 {
			return nil, fmt.Errorf("ComplexAck too short: %d bytes", len(apdu))
		}
		value, err := decodeAckValue(apdu[3:])
		if err != nil {
			return nil, err
		}
		return &response{invokeID: apdu[1], value: value, hasValue: true}, nil

	case pduError:
		class, code := decodeErrorPDU(apdu)
		return nil, &errDeviceError{pdu: "Error", class: class, code: code}

	case pduReject:
		var reason uint32
		if len(apdu) >= 3 {
			reason = uint32(apdu[2])
		}
		return nil, &errDeviceError{pdu: "Reject", code: reason}

	case pduAbort:
		var reason uint32
		if len(apdu) >= 3 {
			reason = uint32(apdu[2])
		}
		return nil, &errDeviceError{pdu: "Abort", code: reason}
	}
	return nil, fmt.Errorf("unexpected PDU type 0x%02X", apdu[0])
}

// decodeAckValue walks a ReadProperty-ACK body past the echoed object
// and property identifiers to the opening tag 3, then decodes the single
// application-tagged value inside.
func decodeAckValue(body []byte) (float64, error) {
	i := 0
	for i < len(body) && body[i] != 0x3E {
		tag := body[i]
		i++
		length := int(tag & 0x07)
		if length == 5 {
			if i >= len(body) {
				return 0, fmt.Errorf("truncated extended tag length")
			}
			length = int(body[i])
			i++
		}
		i += length
	}
	if i >= len(body) {
		return 0, fmt.Errorf("ReadProperty-ACK missing property value")
	}
	i++ // opening tag 3
	return decodeAppValue(body[i:])
}

// decodeAppValue converts one application-tagged value to float64.
// NULL means the property has no value at any priority and is an error
// for a present-value read.
func decodeAppValue(data []byte) (float64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty property value")
	}
	tag := data[0] >> 4
	length := int(data[0] & 0x07)
	data = data[1:]

	switch tag {
	case tagNull:
		return 0, fmt.Errorf("property value is NULL")
	case tagBoolean:
		// boolean application tags carry the value in the length field
		return float64(length), nil
	case tagReal:
		if len(data) < 4 {
			return 0, fmt.Errorf("truncated REAL value")
		}
		f := math.Float32frombits(binary.BigEndian.Uint32(data[:4]))
		return float64(f), nil
	case tagUnsigned, tagEnumerated:
		if length < 1 || length > 4 || len(data) < length {
			return 0, fmt.Errorf("bad unsigned length %d", length)
		}
		var v uint32
		for _, b := range data[:length] {
			v = v<<8 | uint32(b)
		}
		return float64(v), nil
	case tagSigned:
		if length < 1 || length > 4 || len(data) < length {
			return 0, fmt.Errorf("bad signed length %d", length)
		}
		v := int32(int8(data[0])) // sign-extend from the first octet
		for _, b := range data[1:length] {
			v = v<<8 | int32(b)
		}
		return float64(v), nil
	}
	return 0, fmt.Errorf("unsupported application tag %d", tag)
}

// decodeErrorPDU extracts error-class and error-code from an Error PDU.
// Both travel as ENUMERATED application tags after the service choice.
func decodeErrorPDU(apdu []byte) (class, code uint32) {
	// apdu: [0x50, invokeID, serviceChoice, enum(class), enum(code)]
	i := 3
	read := func() uint32 {
		if i >= len(apdu) || apdu[i]>>4 != tagEnumerated {
			return 0
		}
		length := int(apdu[i] & 0x07)
		i++
		var v uint32
		for n := 0; n < length && i < len(apdu); n++ {
			v = v<<8 | uint32(apdu[i])
			i++
		}
		return v
	}
	class = read()
	code = read()
	return class, code
}
