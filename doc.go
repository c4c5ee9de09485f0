// Package dihelper is a small dependency-injection container.
//
// Beans are named, typed values declared through an explicit registration
// table (Builder). A BeanProvider stores them in a registry that is sealed
// once built, and drives three phases:
//
//   - init: enabled beans in ascending InitConfig.Order, synchronously,
//     stopping at the first failure;
//   - run: each enabled bean once after RunConfig.Delay, then every
//     RunConfig.RepetitionPeriod when positive, each in its own goroutine;
//   - close: on Shutdown, after the run timers are stopped, enabled beans in
//     ascending CloseConfig.Order, all of them even when some fail.
//
// Lookups match on the exact declared type:
//
//	b := dihelper.NewBuilder()
//	dihelper.Provide[Fruit](b, "apple", &Apple{})
//
//	provider, _ := dihelper.NewBeanProvider(b)
//	_ = provider.Init(ctx)
//	defer provider.Shutdown(ctx)
//
//	fruit, ok := dihelper.GetBean[Fruit](provider, "apple")  // ok
//	_, ok = dihelper.GetBean[*Apple](provider, "apple")      // not found
//
// Lifecycle transitions are published as CloudEvents to registered
// Observers.
package dihelper
