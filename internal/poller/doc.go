// Package poller keeps the latest Nature Remo snapshots and fans them out.
//
// A Poller runs one ticker per resource. Each tick makes exactly one
// gateway call and, when it succeeds, publishes the result on a Subject.
// When it fails nothing is published, so subscribers keep the previous
// snapshot rather than seeing an empty one.
//
// # Subjects
//
//   - Devices: every Remo unit with its newest sensor events
//   - Aircons: appliances of type AC
//   - IRs: appliances of type IR
//
// Start publishes an empty snapshot on each subject first so consumers can
// bind before the first fetch returns.
//
// # Usage
//
//	p := poller.New(poller.Config{Gateway: client, DevicesInterval: 60 * time.Second})
//	p.SetLogger(log)
//	unsubscribe := p.Devices.Subscribe(func(devices []remo.Device) { ... })
//	p.Start(ctx)
//	defer p.Stop()
package poller
