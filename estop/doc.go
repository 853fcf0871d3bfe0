// Package estop implements software E-Stop endpoints.
//
// An Endpoint registers itself in the robot's E-Stop configuration and then
// proves it is alive by answering the robot's challenges. A KeepAlive does
// that in the background at a requested stop level; when the check-ins stop
// arriving the robot cuts motor power on its own.
//
//	ep := estop.NewEndpoint(estopClient, "operator", 9*time.Second)
//	if err := ep.ForceSimpleSetup(ctx); err != nil {
//		return err
//	}
//	ka := estop.NewKeepAlive(ep)
//	defer ka.Shutdown()
//	ka.Allow()
package estop
