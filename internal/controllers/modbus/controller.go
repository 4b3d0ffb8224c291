package modbusctrl

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	mbserver "github.com/tbrandon/mbserver"

	"github.com/Agrid-Dev/copcalc/internal/heatpump"
	"github.com/Agrid-Dev/copcalc/internal/logger"
	"github.com/Agrid-Dev/copcalc/internal/ports"
)

// Register map (all values int16, scaled by ValueScale):
//
//	coils 0..3             defrost, parasitics, hex_penalty, part_load
//	holding registers 0..7 heatpump.Parameters in declaration order
//	input registers 0..7   cop, carnot_cop, raw_cop, defrost_penalty,
//	                       inverter_correction, load_factor,
//	                       evaporator_temperature, condenser_temperature
//
// NaN reads as InvalidRegister; infinities saturate.

// Config for the Modbus controller.
type Config struct {
	DeviceID string
	Addr     string
	UnitID   byte // UnitID (Modbus slave/unit ID). Use an integer 1..247.

	Log *logger.Logger
}

type Controller struct {
	svc ports.HeatPumpService
	cfg Config
	log *logger.Logger

	serv *mbserver.Server
}

func New(svc ports.HeatPumpService, cfg Config) (*Controller, error) {
	if cfg.UnitID == 0 {
		return nil, errors.New("modbus: UnitID is required (non-zero)")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:1502"
	}
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{svc: svc, cfg: cfg, log: log.With("controller", "modbus")}, nil
}

const (
	numCoils          = 4
	numHolding        = 8
	numInputRegisters = 8
)

// Run starts the Modbus server and registers handlers that apply writes immediately and
// serve reads directly from the heat pump service. It blocks until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	serv := mbserver.NewServer()
	c.serv = serv

	// Register handlers BEFORE starting the TCP listener to avoid races inside mbserver
	// between handler registration and the server's goroutines.
	serv.RegisterFunctionHandler(1, c.readCoils)
	serv.RegisterFunctionHandler(3, c.readHoldingRegisters)
	serv.RegisterFunctionHandler(4, c.readInputRegisters)
	serv.RegisterFunctionHandler(5, c.writeSingleCoil)
	serv.RegisterFunctionHandler(6, c.writeSingleRegister)
	serv.RegisterFunctionHandler(15, c.writeMultipleCoils)
	serv.RegisterFunctionHandler(16, c.writeMultipleRegisters)

	// Now start listening after all handlers are registered.
	if err := serv.ListenTCP(c.cfg.Addr); err != nil {
		return fmt.Errorf("mbserver listen tcp %s: %w", c.cfg.Addr, err)
	}
	c.log.Infow("listening", "addr", c.cfg.Addr, "unit_id", c.cfg.UnitID)

	// Block until ctx.Done()
	<-ctx.Done()
	serv.Close()
	return ctx.Err()
}

// readRange decodes the start/quantity header shared by the read functions.
func readRange(frame mbserver.Framer, maxQty, size int) (start, qty int, exc *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return 0, 0, &mbserver.IllegalDataValue
	}
	start = int(binary.BigEndian.Uint16(data[0:2]))
	qty = int(binary.BigEndian.Uint16(data[2:4]))
	if qty == 0 || qty > maxQty {
		return 0, 0, &mbserver.IllegalDataValue
	}
	if start+qty > size {
		return 0, 0, &mbserver.IllegalDataAddress
	}
	return start, qty, nil
}

// Read Coils (function 1) - feature flags.
func (c *Controller) readCoils(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, exc := readRange(frame, 2000, numCoils)
	if exc != nil {
		return []byte{}, exc
	}
	in := c.svc.Get().Input
	var bits byte
	for i := 0; i < qty; i++ {
		on, err := in.Enabled(heatpump.Features[start+i])
		if err != nil {
			return []byte{}, &mbserver.IllegalDataAddress
		}
		if on {
			bits |= 1 << i
		}
	}
	// response: byte count (1) + coil bytes
	return []byte{1, bits}, &mbserver.Success
}

// Read Holding Registers (function 3) - input parameters.
func (c *Controller) readHoldingRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, exc := readRange(frame, 125, numHolding)
	if exc != nil {
		return []byte{}, exc
	}
	in := c.svc.Get().Input
	regs := make([]uint16, 0, qty)
	for i := 0; i < qty; i++ {
		v, err := in.Value(heatpump.Parameters[start+i])
		if err != nil {
			return []byte{}, &mbserver.IllegalDataAddress
		}
		regs = append(regs, encodeValue(v))
	}
	return registerResponse(regs), &mbserver.Success
}

// Read Input Registers (function 4) - calculation result.
func (c *Controller) readInputRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, exc := readRange(frame, 125, numInputRegisters)
	if exc != nil {
		return []byte{}, exc
	}
	all := resultRegisters(c.svc.Get().Result)
	return registerResponse(all[start : start+qty]), &mbserver.Success
}

// Write Single Coil (function 5)
func (c *Controller) writeSingleCoil(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := int(binary.BigEndian.Uint16(data[0:2]))
	value := binary.BigEndian.Uint16(data[2:4])

	if addr >= numCoils {
		return []byte{}, &mbserver.IllegalDataAddress
	}

	var on bool
	switch value {
	case 0x0000:
		on = false
	case 0xFF00:
		on = true
	default:
		return []byte{}, &mbserver.IllegalDataValue
	}

	if err := c.svc.SetFeature(heatpump.Features[addr], on); err != nil {
		c.log.Warnw("rejected coil write", "addr", addr, "err", err)
		return []byte{}, &mbserver.IllegalDataValue
	}

	// echo request (address + value)
	resp := make([]byte, 4)
	copy(resp, data[0:4])
	return resp, &mbserver.Success
}

// Write Multiple Coils (function 15)
func (c *Controller) writeMultipleCoils(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	d := frame.GetData()
	if len(d) < 5 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	start := binary.BigEndian.Uint16(d[0:2])
	quantity := binary.BigEndian.Uint16(d[2:4])
	byteCount := int(d[4])
	if quantity == 0 || byteCount != (int(quantity)+7)/8 || len(d) < 5+byteCount {
		return []byte{}, &mbserver.IllegalDataValue
	}
	if int(start)+int(quantity) > numCoils {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	for i := 0; i < int(quantity); i++ {
		on := d[5+i/8]&(1<<(i%8)) != 0
		if err := c.svc.SetFeature(heatpump.Features[int(start)+i], on); err != nil {
			c.log.Warnw("rejected coil write", "addr", int(start)+i, "err", err)
			return []byte{}, &mbserver.IllegalDataValue
		}
	}

	resp := make([]byte, 4)
	binary.BigEndian.PutUint16(resp[0:2], start)
	binary.BigEndian.PutUint16(resp[2:4], quantity)
	return resp, &mbserver.Success
}

// Write Single Register (function 6)
func (c *Controller) writeSingleRegister(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := int(binary.BigEndian.Uint16(data[0:2]))
	value := binary.BigEndian.Uint16(data[2:4])

	if exc := c.writeRegister(addr, value); exc != nil {
		return []byte{}, exc
	}

	resp := make([]byte, 4)
	copy(resp, data[0:4])
	return resp, &mbserver.Success
}

// Write Multiple Registers (function 16)
func (c *Controller) writeMultipleRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	d := frame.GetData()
	if len(d) < 5 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	start := binary.BigEndian.Uint16(d[0:2])
	quantity := binary.BigEndian.Uint16(d[2:4])
	byteCount := int(d[4])
	if byteCount != int(quantity)*2 || len(d) < 5+byteCount {
		return []byte{}, &mbserver.IllegalDataValue
	}
	for i := 0; i < int(quantity); i++ {
		val := binary.BigEndian.Uint16(d[5+i*2 : 5+i*2+2])
		if exc := c.writeRegister(int(start)+i, val); exc != nil {
			return []byte{}, exc
		}
	}

	resp := make([]byte, 4)
	binary.BigEndian.PutUint16(resp[0:2], start)
	binary.BigEndian.PutUint16(resp[2:4], quantity)
	return resp, &mbserver.Success
}

func (c *Controller) writeRegister(addr int, value uint16) *mbserver.Exception {
	if addr < 0 || addr >= numHolding {
		return &mbserver.IllegalDataAddress
	}
	p := heatpump.Parameters[addr]
	if err := c.svc.SetParameter(p, decodeValue(value)); err != nil {
		c.log.Warnw("rejected register write", "parameter", p.String(), "err", err)
		return &mbserver.IllegalDataValue
	}
	return nil
}

func resultRegisters(r heatpump.Result) []uint16 {
	return []uint16{
		encodeValue(r.COP),
		encodeValue(r.CarnotCOP),
		encodeValue(r.RawCOP),
		encodeValue(r.DefrostPenalty),
		encodeValue(r.InverterCorrection),
		encodeValue(r.LoadFactor),
		encodeValue(r.EvaporatorTemperature),
		encodeValue(r.CondenserTemperature),
	}
}

func registerResponse(regs []uint16) []byte {
	byteCount := len(regs) * 2
	resp := make([]byte, 1+byteCount)
	resp[0] = byte(byteCount)
	for i, r := range regs {
		binary.BigEndian.PutUint16(resp[1+i*2:1+i*2+2], r)
	}
	return resp
}

const ValueScale int = 100

// InvalidRegister is what a NaN reads as.
const InvalidRegister uint16 = 0x8000

func encodeValue(v float64) uint16 {
	if math.IsNaN(v) {
		return InvalidRegister
	}
	var r int16
	switch scaled := v * float64(ValueScale); {
	case scaled >= math.MaxInt16:
		r = math.MaxInt16
	case scaled <= math.MinInt16+1:
		r = math.MinInt16 + 1
	default:
		r = int16(math.Round(scaled))
	}
	return uint16(r)
}

func decodeValue(u uint16) float64 {
	i := int16(u)
	return float64(i) / float64(ValueScale)
}
