// Package robocore is the client side of a networked robot: it keeps the
// leases, time sync and E-Stop heartbeat a caller needs before any command
// is accepted, and hands out service clients that share them.
//
// # Connecting
//
// An SDK holds configuration shared by every robot. A Robot dials lazily,
// one connection per authority, and resolves services through the robot
// directory:
//
//	sdk, err := robocore.NewSDK(robocore.DefaultConfig(), robocore.WithLogger(logger))
//	if err != nil { return err }
//	robot, err := sdk.CreateRobot("192.168.80.3")
//	if err != nil { return err }
//	defer robot.Close()
//	if err := robot.AuthenticateFromEnv(ctx); err != nil { return err }
//
// # Leases
//
// Every Robot owns a lease wallet. Acquired leases enter it, requests that
// need a lease get a freshly advanced one attached, and lease use results in
// responses update or evict wallet entries:
//
//	leases, _ := robot.LeaseClient(ctx)
//	if _, err := leases.AcquireLease(ctx, lease.DefaultResource, robot.Params()); err != nil { return err }
//	ka := lease.NewKeepAlive(robot.Wallet(), leases, lease.DefaultResource)
//	defer ka.Stop()
//
// # Time sync and commands
//
// Commands carry end times. StartTimeSync runs a background keeper that
// estimates the robot clock skew; the command client rewrites end times into
// robot time before dispatch and refuses to send while no estimate exists.
//
//	keeper, _ := robot.StartTimeSync(ctx)
//	if err := keeper.WaitForSync(ctx); err != nil { return err }
//	commands, _ := robot.RobotCommandClient(ctx)
//	id, err := commands.RobotCommand(ctx, cmd, robot.Params())
//
// # E-Stop
//
// An E-Stop endpoint must check in periodically or the robot stops. See
// package estop for the keepalive and its stop levels.
//
// Errors returned by every package are status values; use status.Is to test
// for a specific code.
package robocore
