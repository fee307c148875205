package main

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MochiBaga/asm2464pd-firmware/cmdengine"
	"github.com/MochiBaga/asm2464pd-firmware/datarecording"
	"github.com/MochiBaga/asm2464pd-firmware/dispatch"
	"github.com/MochiBaga/asm2464pd-firmware/dma"
	"github.com/MochiBaga/asm2464pd-firmware/monitoring"
	"github.com/MochiBaga/asm2464pd-firmware/power"
	"github.com/MochiBaga/asm2464pd-firmware/regfile"
	"github.com/MochiBaga/asm2464pd-firmware/sim"
	"github.com/MochiBaga/asm2464pd-firmware/uart"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scripted storage workload against the firmware model.",
	Long: `run builds the full device model, issues a sequence of storage ` +
		`read and write commands, walks the power state machine through a ` +
		`suspend, and reports the final device state.`,
	Run: runWorkload,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("commands", 8,
		"number of storage commands to issue")
	runCmd.Flags().String("trace", "",
		"record all register accesses into this SQLite database")
	runCmd.Flags().Bool("monitor", false,
		"start the monitoring web server")
	runCmd.Flags().Int("monitor-port", 0,
		"port for the monitoring server, 0 picks a random port")
	runCmd.Flags().Bool("browser", false,
		"open the monitor in the local browser")
}

// device bundles the engine, the register file, and every firmware
// collaborator built on top of them.
type device struct {
	engine   *sim.SerialEngine
	regs     *regfile.File
	cmds     *cmdengine.Engine
	dma      *dma.Coordinator
	power    *power.Coordinator
	console  *uart.Writer
	events   *deviceEvents
	tickComp *sim.TickingComponent
}

// deviceEvents receives the dispatcher events that have no dedicated
// collaborator and mirrors them to the debug console.
type deviceEvents struct {
	console *uart.Writer

	completions int
}

func (d *deviceEvents) HandleCompletion() {
	d.completions++
	d.console.Debug("NVME", "Command completion", byte(d.completions))
}

func (d *deviceEvents) HandleAsyncEvent() {
	d.console.Debug("PCIE", "Async event", 0x00)
}

func (d *deviceEvents) HandleExecStatus() {
	d.console.Debug("CPU", "Exec status event", 0x00)
}

func (d *deviceEvents) HandleSystemEvent() {
	d.console.Debug("SYS", "System event", 0x00)
}

func (d *deviceEvents) HandleError(code byte) {
	d.console.Debug("ERR", "PCIe error", code)
}

func buildDevice() *device {
	engine := sim.NewSerialEngine()

	regs := regfile.NewFile()
	regfile.AttachHostedModels(regs)

	console := uart.NewWriter(regs, os.Stdout)

	pw := power.MakeBuilder().WithRegisters(regs).Build()

	events := &deviceEvents{console: console}

	dispatcher := dispatch.MakeBuilder().
		WithRegisters(regs).
		WithIdleTimeoutHandler(pw).
		WithLinkEventHandler(pw).
		WithDebugOutputHandler(console).
		WithCompletionHandler(events).
		WithAsyncEventHandler(events).
		WithExecStatusHandler(events).
		WithSystemEventHandler(events).
		WithErrorHandler(events).
		Build()

	dev := &device{
		engine:  engine,
		regs:    regs,
		cmds:    cmdengine.MakeBuilder().WithRegisters(regs).Build(),
		dma:     dma.MakeBuilder().WithRegisters(regs).Build(),
		power:   pw,
		console: console,
		events:  events,
	}

	dev.tickComp = sim.NewTickingComponent(
		"Device.Dispatcher", engine, 1*sim.MHz, dispatcher)

	// Peripheral-bus event gate open from boot.
	regs.Poke(regfile.RegEventGate, 0x01)

	return dev
}

// issueEvent triggers the issue of one storage command.
type issueEvent struct {
	*sim.EventBase
}

// workload issues storage commands at a fixed rate and raises the
// completion flag for the dispatcher after each one.
type workload struct {
	dev       *device
	remaining int
	issued    int
	lba       uint32
	period    sim.VTimeInSec
	bar       *monitoring.ProgressBar
}

func (w *workload) Handle(e sim.Event) error {
	mode := cmdengine.Mode2
	if w.issued%2 == 1 {
		mode = cmdengine.Mode3
	}

	err := w.dev.cmds.Execute(cmdengine.Command{
		Mode:  mode,
		Param: byte(w.issued),
		LBA:   w.lba,
	})
	if err != nil {
		return err
	}

	w.issued++
	w.lba += 8
	w.remaining--

	if w.bar != nil {
		w.bar.IncrementFinished(1)
	}

	// Raise the completion flag and let the dispatcher service it.
	w.dev.regs.SetBits(regfile.RegNVMeEventStat, regfile.NVMeEventPending)
	w.dev.tickComp.TickNow()

	if w.remaining > 0 {
		w.dev.engine.Schedule(issueEvent{
			EventBase: sim.NewEventBase(e.Time()+w.period, w),
		})
	}

	return nil
}

func runWorkload(cmd *cobra.Command, _ []string) {
	// Optional .env file carries local defaults such as the monitor port.
	_ = godotenv.Load()

	numCommands, _ := cmd.Flags().GetInt("commands")
	tracePath, _ := cmd.Flags().GetString("trace")
	useMonitor, _ := cmd.Flags().GetBool("monitor")
	monitorPort, _ := cmd.Flags().GetInt("monitor-port")
	openBrowser, _ := cmd.Flags().GetBool("browser")

	if monitorPort == 0 {
		if p, err := strconv.Atoi(
			os.Getenv("ASMBRIDGE_MONITOR_PORT")); err == nil {
			monitorPort = p
		}
	}

	dev := buildDevice()

	if tracePath != "" {
		recorder := datarecording.NewSQLiteRecorder(tracePath, dev.engine)
		recorder.Init()
		dev.regs.AcceptHook(recorder)
		defer recorder.Flush()
	}

	var bar *monitoring.ProgressBar
	if useMonitor {
		m := monitoring.NewMonitor()
		m.RegisterEngine(dev.engine)
		m.RegisterRegisterFile(dev.regs)
		if monitorPort != 0 {
			m = m.WithPortNumber(monitorPort)
		}
		if openBrowser {
			m = m.WithBrowser()
		}
		m.StartServer()

		bar = m.CreateProgressBar("storage commands", uint64(numCommands))
	}

	dev.console.Debug("BOOT", "Firmware model up", 0x01)

	dev.cmds.ConfigCommand()

	// Stage one DMA transfer the way the boot path does before the first
	// storage command.
	dev.dma.ConfigChannel(0, 0x01)
	dev.dma.SetupTransfer(0, 512)
	dev.dma.StartTransfer(0x00, 0x01, 1)
	dev.dma.Arm()
	if err := dev.dma.WaitComplete(); err != nil {
		log.Fatalf("boot DMA transfer did not complete: %v", err)
	}
	dev.dma.ClearStatus()
	dev.dma.ClearWorkArea(0)

	w := &workload{
		dev:       dev,
		remaining: numCommands,
		period:    (1 * sim.MHz).Period(),
		bar:       bar,
	}
	dev.engine.Schedule(issueEvent{
		EventBase: sim.NewEventBase(w.period, w),
	})

	if err := dev.engine.Run(); err != nil {
		log.Fatalf("workload failed: %v", err)
	}

	log.Printf("issued %d commands, %d completions observed",
		w.issued, dev.events.completions)

	// Host goes idle; the dispatcher walks the links down to suspend.
	dev.regs.SetBits(regfile.RegIntSystem, regfile.IntSystemIdleTimeout)
	dev.tickComp.TickLater()
	if err := dev.engine.Run(); err != nil {
		log.Fatalf("suspend walk failed: %v", err)
	}

	log.Printf("host link U%d, bus link %d, suspended %t",
		dev.power.HostLink(), dev.power.BusLink(), dev.power.Suspended())

	dev.engine.Finished()
}
